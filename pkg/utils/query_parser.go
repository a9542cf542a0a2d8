package utils

import (
	"net/url"
	"strconv"
	"strings"

	"property-system/pkg/types"
)

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

// ParseFilterFromQuery traduce el query string a un Filter. Soporta
// limit/page, sort=campo:dir y el resto de pares campo=valor como filtros;
// qué columnas se permiten realmente lo decide cada repositorio.
func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:           make(map[string]string),
		Filter:         make(map[string]interface{}),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: true,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if sortStr := values.Get("sort"); sortStr != "" {
		parts := strings.SplitN(sortStr, ":", 2)
		dir := "asc"
		if len(parts) == 2 {
			dir = parts[1]
		}
		filterReq.Sort[parts[0]] = dir
	}

	for key, vals := range values {
		switch key {
		case "limit", "page", "sort":
			continue
		}
		if len(vals) > 0 && vals[0] != "" {
			filterReq.Filter[key] = vals[0]
		}
	}

	filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	return filterReq
}
