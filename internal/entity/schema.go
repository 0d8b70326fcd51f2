package entity

// TemplateFieldsSchema describes the JSON stored in technical_guides.template_fields.
func TemplateFieldsSchema() map[string]any {
	section := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   map[string]any{"type": "string", "minLength": 1},
			"page":    map[string]any{"type": "integer", "minimum": 1},
			"content": map[string]any{"type": "string"},
		},
		"required": []string{"title", "page", "content"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"guide_title": map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string", "maxLength": 500},
			"category":    map[string]any{"type": "string", "minLength": 1},
			"sections":    map[string]any{"type": "array", "items": section, "maxItems": 5},
			"key_specifications": map[string]any{
				"type":                 "object",
				"maxProperties":        10,
				"additionalProperties": map[string]any{"type": "string"},
			},
			"related_parts": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"maxItems": 20,
			},
			"created_date": map[string]any{"type": []string{"string", "null"}},
			"document_id":  map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"guide_title", "description", "category", "sections", "key_specifications", "related_parts", "document_id"},
	}
}

// MachineInfoSchema describes the JSON stored in parts.machine_info.
func MachineInfoSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"models": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "minLength": 2},
				"uniqueItems": true,
			},
			"section": map[string]any{"type": "string"},
		},
	}
}
