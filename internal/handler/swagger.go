package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/habitat/habitat-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// transformRefs rewrites $ref targets from #/definitions/ to #/components/schemas/
func transformRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = transformRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

// transformOperation converts one Swagger 2.0 operation. Body and formData
// parameters become a requestBody; the rest get a schema object.
func transformOperation(op map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(op))
	for key, value := range op {
		if key != "parameters" && key != "responses" && key != "consumes" && key != "produces" {
			result[key] = transformRefs(value)
		}
	}

	consumes := stringList(op["consumes"], "application/json")
	produces := stringList(op["produces"], "application/json")

	params, _ := op["parameters"].([]interface{})
	var converted []interface{}
	formProps := make(map[string]interface{})
	var formRequired []interface{}

	for _, raw := range params {
		param, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			content := make(map[string]interface{})
			for _, mt := range consumes {
				content[mt] = map[string]interface{}{"schema": transformRefs(param["schema"])}
			}
			result["requestBody"] = map[string]interface{}{
				"required": param["required"],
				"content":  content,
			}
		case "formData":
			prop := map[string]interface{}{"type": param["type"]}
			if param["type"] == "file" {
				prop = map[string]interface{}{"type": "string", "format": "binary"}
			}
			formProps[param["name"].(string)] = prop
			if req, _ := param["required"].(bool); req {
				formRequired = append(formRequired, param["name"])
			}
		default:
			converted = append(converted, transformParameter(param))
		}
	}

	if len(formProps) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": formProps}
		if len(formRequired) > 0 {
			schema["required"] = formRequired
		}
		result["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{"multipart/form-data": map[string]interface{}{"schema": schema}},
		}
	}
	if len(converted) > 0 {
		result["parameters"] = converted
	}

	if responses, ok := op["responses"].(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(responses))
		for status, raw := range responses {
			resp, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			entry := map[string]interface{}{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				content := make(map[string]interface{})
				for _, mt := range produces {
					content[mt] = map[string]interface{}{"schema": transformRefs(schema)}
				}
				entry["content"] = content
			}
			out[status] = entry
		}
		result["responses"] = out
	}

	return result
}

// transformParameter converts a Swagger 2.0 path or query parameter
func transformParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = transformRefs(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

func stringList(value interface{}, fallback string) []string {
	items, _ := value.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}

// ConvertToOpenAPI3 converts a Swagger 2.0 document to OpenAPI 3.0
func ConvertToOpenAPI3(doc []byte, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal(doc, &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})

	paths := make(map[string]interface{})
	if rawPaths, ok := swagger2["paths"].(map[string]interface{}); ok {
		for path, rawItem := range rawPaths {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				continue
			}
			methods := make(map[string]interface{}, len(item))
			for method, rawOp := range item {
				if op, ok := rawOp.(map[string]interface{}); ok {
					methods[method] = transformOperation(op)
				}
			}
			paths[path] = methods
		}
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = transformRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      paths,
		Components: components,
	}, nil
}

// OpenAPIHandler serves the API document converted to OpenAPI 3.0
func OpenAPIHandler(servers []Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return NewInternalError(c, "Failed to read API document")
		}

		spec, err := ConvertToOpenAPI3([]byte(doc), servers)
		if err != nil {
			return NewInternalError(c, "Failed to parse API document")
		}
		return c.JSON(http.StatusOK, spec)
	}
}

// DefaultServers lists the local server plus publicURL when set
func DefaultServers(port, publicURL string) []Server {
	servers := []Server{{URL: "http://localhost:" + port + "/api/v1", Description: "Local Development"}}
	if publicURL != "" {
		servers = append(servers, Server{URL: strings.TrimSuffix(publicURL, "/") + "/api/v1", Description: "Production"})
	}
	return servers
}
