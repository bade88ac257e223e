package types

// JSONMap stores free-form JSON objects through GORM's json serializer.
type JSONMap map[string]any
