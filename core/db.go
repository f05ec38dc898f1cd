package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops orderings on fields that are not in `allowed`.
// `allowed` maps exposed field names to column names.
func AllowedOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	if len(orderings) == 0 {
		return nil
	}
	cleaned := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := allowed[ord.Field]; ok {
			cleaned = append(cleaned, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return cleaned
}
