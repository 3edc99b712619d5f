package database

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/valyala/fastjson"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Filter describes a query against a collection: a where condition, a field
// projection, sorting and pagination. Handlers build filters programmatically;
// list endpoints can also parse one from the `filter` query parameter.
type Filter struct {
	where  bson.M
	fields bson.M
	sort   bson.D
	limit  int64
	skip   int64
}

func NewFilter() *Filter {
	return &Filter{where: bson.M{}}
}

// Where merges a raw condition into the filter. Conditions on the same field
// are combined under $and to avoid silently dropping one of them.
func (f *Filter) Where(condition bson.M) *Filter {
	for key, value := range condition {
		if existing, ok := f.where[key]; ok {
			f.where["$and"] = append(asSlice(f.where["$and"]), bson.M{key: existing}, bson.M{key: value})
			delete(f.where, key)
			continue
		}
		f.where[key] = value
	}
	return f
}

func (f *Filter) Eq(field string, value any) *Filter {
	return f.Where(bson.M{field: value})
}

// Include restricts the projection to the given fields.
func (f *Filter) Include(fields ...string) *Filter {
	if f.fields == nil {
		f.fields = bson.M{}
	}
	for _, field := range fields {
		f.fields[field] = 1
	}
	return f
}

// Exclude removes the given fields from the projection.
func (f *Filter) Exclude(fields ...string) *Filter {
	if f.fields == nil {
		f.fields = bson.M{}
	}
	for _, field := range fields {
		f.fields[field] = 0
	}
	return f
}

// Sort adds a sort key. Multiple calls build a compound sort in call order.
func (f *Filter) Sort(field string, descending bool) *Filter {
	direction := 1
	if descending {
		direction = -1
	}
	f.sort = append(f.sort, bson.E{Key: field, Value: direction})
	return f
}

func (f *Filter) Limit(n int64) *Filter {
	f.limit = n
	return f
}

func (f *Filter) Skip(n int64) *Filter {
	f.skip = n
	return f
}

func (f *Filter) WhereQuery() bson.M {
	if f == nil || f.where == nil {
		return bson.M{}
	}
	return f.where
}

func (f *Filter) Projection() bson.M { return f.fields }
func (f *Filter) SortSpec() bson.D   { return f.sort }
func (f *Filter) LimitValue() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}
func (f *Filter) SkipValue() int64 {
	if f == nil {
		return 0
	}
	return f.skip
}

var filterParserPool fastjson.ParserPool

// filter operator -> mongo operator. "like" becomes a case-insensitive regex.
var whereOperators = map[string]string{
	"gt":     "$gt",
	"gte":    "$gte",
	"lt":     "$lt",
	"lte":    "$lte",
	"ne":     "$ne",
	"in":     "$in",
	"nin":    "$nin",
	"exists": "$exists",
}

// ParseFilter parses a JSON filter query parameter of the form
//
//	{"where":{"branch":"CSE","cgpa":{"gte":7}},"order":"createdAt DESC","limit":20,"skip":0}
//
// into a Filter. An empty string yields an empty filter.
func ParseFilter(raw string) (*Filter, error) {
	filter := NewFilter()
	if strings.TrimSpace(raw) == "" {
		return filter, nil
	}

	parser := filterParserPool.Get()
	defer filterParserPool.Put(parser)

	parsed, err := parser.Parse(raw)
	if err != nil {
		return nil, errors.Errorf("invalid filter JSON: %v", err)
	}

	if whereValue := parsed.Get("where"); whereValue != nil {
		where, err := parseWhereValue(whereValue)
		if err != nil {
			return nil, err
		}
		filter.Where(where)
	}

	if orderValue := parsed.Get("order"); orderValue != nil {
		order, err := orderValue.StringBytes()
		if err != nil {
			return nil, errors.New("filter order must be a string")
		}
		if err := applyOrder(filter, string(order)); err != nil {
			return nil, err
		}
	}

	if limitValue := parsed.Get("limit"); limitValue != nil {
		limit, err := limitValue.Int64()
		if err != nil || limit < 0 {
			return nil, errors.New("filter limit must be a non-negative integer")
		}
		filter.Limit(limit)
	}

	if skipValue := parsed.Get("skip"); skipValue != nil {
		skip, err := skipValue.Int64()
		if err != nil || skip < 0 {
			return nil, errors.New("filter skip must be a non-negative integer")
		}
		filter.Skip(skip)
	}

	return filter, nil
}

// applyOrder parses "field", "field ASC" or "field DESC" clauses separated by
// commas.
func applyOrder(filter *Filter, order string) error {
	for _, clause := range strings.Split(order, ",") {
		parts := strings.Fields(clause)
		switch len(parts) {
		case 0:
			continue
		case 1:
			filter.Sort(parts[0], false)
		case 2:
			direction := strings.ToUpper(parts[1])
			if direction != "ASC" && direction != "DESC" {
				return errors.Errorf("invalid sort direction: %s", parts[1])
			}
			filter.Sort(parts[0], direction == "DESC")
		default:
			return errors.Errorf("invalid order clause: %s", clause)
		}
	}
	return nil
}

func parseWhereValue(value *fastjson.Value) (bson.M, error) {
	object, err := value.Object()
	if err != nil {
		return nil, errors.New("filter where must be an object")
	}

	where := bson.M{}
	object.Visit(func(key []byte, v *fastjson.Value) {
		if err != nil {
			return
		}

		field := string(key)
		switch field {
		case "and", "or":
			conditions, visitErr := parseWhereList(v)
			if visitErr != nil {
				err = visitErr
				return
			}
			where["$"+field] = conditions
		default:
			condition, visitErr := parseCondition(v)
			if visitErr != nil {
				err = visitErr
				return
			}
			where[field] = condition
		}
	})
	if err != nil {
		return nil, err
	}

	return where, nil
}

func parseWhereList(value *fastjson.Value) ([]bson.M, error) {
	items, err := value.Array()
	if err != nil {
		return nil, errors.New("and/or conditions must be arrays")
	}

	var conditions []bson.M
	for _, item := range items {
		condition, err := parseWhereValue(item)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}
	return conditions, nil
}

// parseCondition converts a field condition: a scalar means equality, an
// object holds operators ({"gte":7}, {"like":"infosys"}, {"between":[6,9]}).
func parseCondition(value *fastjson.Value) (any, error) {
	if value.Type() != fastjson.TypeObject {
		return jsonValueToAny(value)
	}

	object, _ := value.Object()
	condition := bson.M{}
	var err error

	object.Visit(func(key []byte, v *fastjson.Value) {
		if err != nil {
			return
		}

		operator := string(key)
		switch {
		case whereOperators[operator] != "":
			operand, convErr := jsonValueToAny(v)
			if convErr != nil {
				err = convErr
				return
			}
			condition[whereOperators[operator]] = operand
		case operator == "like":
			pattern, strErr := v.StringBytes()
			if strErr != nil {
				err = errors.New("like operand must be a string")
				return
			}
			condition["$regex"] = string(pattern)
			condition["$options"] = "i"
		case operator == "between":
			bounds, arrErr := v.Array()
			if arrErr != nil || len(bounds) != 2 {
				err = errors.New("between operand must be an array of two values")
				return
			}
			low, lowErr := jsonValueToAny(bounds[0])
			high, highErr := jsonValueToAny(bounds[1])
			if lowErr != nil || highErr != nil {
				err = errors.New("invalid between bounds")
				return
			}
			condition["$gte"] = low
			condition["$lte"] = high
		default:
			err = errors.Errorf("unsupported filter operator: %s", operator)
		}
	})
	if err != nil {
		return nil, err
	}

	return condition, nil
}

func jsonValueToAny(value *fastjson.Value) (any, error) {
	switch value.Type() {
	case fastjson.TypeString:
		b, _ := value.StringBytes()
		return string(b), nil
	case fastjson.TypeNumber:
		return value.Float64()
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeArray:
		items, _ := value.Array()
		result := make([]any, 0, len(items))
		for _, item := range items {
			converted, err := jsonValueToAny(item)
			if err != nil {
				return nil, err
			}
			result = append(result, converted)
		}
		return result, nil
	default:
		return nil, errors.New("unsupported filter value type")
	}
}

func asSlice(value any) []bson.M {
	if value == nil {
		return nil
	}
	if slice, ok := value.([]bson.M); ok {
		return slice
	}
	return nil
}
