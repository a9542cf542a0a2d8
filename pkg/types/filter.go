package types

// Filter transporta paginación, orden y filtros de las peticiones de listado.
type Filter struct {
	Filter         map[string]interface{}
	Sort           map[string]string
	Limit          int
	Page           int
	Offset         int
	WithPagination bool
}
