package model

import (
	"fmt"
	"strings"
)

// OrderBy sorts by a single column.
type OrderBy struct {
	Column string
	Desc   bool
}

// Order is an ordered list of sort keys. The first key is the most significant.
type Order []OrderBy

// Asc and Desc build single-column orders.
func Asc(column string) Order { return Order{{Column: column}} }
func Desc(column string) Order { return Order{{Column: column, Desc: true}} }

// ParseOrder parses the "column [asc|desc], column2" form used by query strings.
//
// Example:
//
//	ParseOrder("create_time desc,id") => [{create_time true} {id false}]
func ParseOrder(raw string) (Order, error) {
	var order Order
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 0:
			continue
		case 1:
			order = append(order, OrderBy{Column: fields[0]})
		case 2:
			switch strings.ToLower(fields[1]) {
			case "asc":
				order = append(order, OrderBy{Column: fields[0]})
			case "desc":
				order = append(order, OrderBy{Column: fields[0], Desc: true})
			default:
				return nil, fmt.Errorf("%w: order direction %q", ErrInvalidValue, fields[1])
			}
		default:
			return nil, fmt.Errorf("%w: order term %q", ErrInvalidValue, strings.TrimSpace(part))
		}
	}
	return order, nil
}

// String renders the order back to its query string form.
func (o Order) String() string {
	parts := make([]string, 0, len(o))
	for _, by := range o {
		if by.Desc {
			parts = append(parts, by.Column+" desc")
		} else {
			parts = append(parts, by.Column+" asc")
		}
	}
	return strings.Join(parts, ",")
}
