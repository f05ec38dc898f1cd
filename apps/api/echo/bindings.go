package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func getOrdering(ctx echo.Context) []core.DBOrdering {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	return ordering.Orderings
}

// paramID returns the integer path param `name`. Non-integer ids cannot exist, hence 404.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// isPartialUpdate tells PATCH requests, which keep the current values of absent fields, from PUT ones.
func isPartialUpdate(ctx echo.Context) bool {
	return ctx.Request().Method == http.MethodPatch
}
