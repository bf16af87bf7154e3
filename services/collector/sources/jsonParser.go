package sources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	"github.com/tidwall/gjson"
)

// jsonParser extracts the value, total and entities from JSON responses using gjson paths
type jsonParser struct{}

// Parse sums the value and total over all responses and concatenates their entities
func (p *jsonParser) Parse(responses []cache.Response, source model.SourceConfig) (model.SourceResult, error) {
	if len(responses) == 0 {
		return model.SourceResult{}, errNoResponses
	}

	params := source.Parameters
	valuePath := params["value_path"]
	totalPath := params["total_path"]
	entitiesPath := params["entities_path"]
	if len(valuePath) == 0 && len(entitiesPath) == 0 {
		return model.SourceResult{}, fmt.Errorf("%w: value_path or entities_path", errMissingParameter)
	}

	var value, total float64
	var entities []model.Entity
	for _, response := range responses {
		if !gjson.ValidBytes(response.Body) {
			return model.SourceResult{}, fmt.Errorf("invalid JSON in response from %s", response.URL)
		}

		if len(entitiesPath) > 0 {
			parsed, err := parseJSONEntities(response.Body, entitiesPath, params["entity_key"])
			if err != nil {
				return model.SourceResult{}, err
			}
			entities = append(entities, parsed...)
		}

		if len(valuePath) > 0 {
			v, err := numberAt(response.Body, valuePath)
			if err != nil {
				return model.SourceResult{}, err
			}
			value += v
		}

		if len(totalPath) > 0 {
			t, err := numberAt(response.Body, totalPath)
			if err != nil {
				return model.SourceResult{}, err
			}
			total += t
		}
	}

	if len(valuePath) == 0 {
		value = float64(len(entities))
	}

	var totalPtr *string
	if len(totalPath) > 0 {
		totalPtr = model.StringPtr(formatNumber(total))
	}

	return model.Success(model.StringPtr(formatNumber(value)), totalPtr, entities), nil
}

func numberAt(body []byte, path string) (float64, error) {
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return 0, errPathNotFound(path)
	}

	switch result.Type {
	case gjson.Number:
		return result.Float(), nil
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(result.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w at %s: %q", errNotANumber, path, result.Str)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w at %s: %s", errNotANumber, path, result.Raw)
	}
}

func parseJSONEntities(body []byte, path string, keyAttribute string) ([]model.Entity, error) {
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return nil, errPathNotFound(path)
	}
	if len(keyAttribute) == 0 {
		keyAttribute = "key"
	}

	var entities []model.Entity
	var err error
	result.ForEach(func(_, item gjson.Result) bool {
		attributes := make(map[string]string)
		item.ForEach(func(name, attribute gjson.Result) bool {
			attributes[name.String()] = attribute.String()
			return true
		})

		key := attributes[keyAttribute]
		if len(key) == 0 {
			err = fmt.Errorf("%w: attribute %s missing", errEntityWithoutKey, keyAttribute)
			return false
		}

		entities = append(entities, model.Entity{
			Key:        key,
			Attributes: attributes,
		})
		return true
	})

	return entities, err
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
