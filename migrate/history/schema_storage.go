package history

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/satishbabariya/schema-engine/internal/version"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// snapshot is the stored form of a schema model.
type snapshot struct {
	EngineVersion string              `json:"engineVersion"`
	Schema        *schema.SchemaModel `json:"schema"`
}

// SerializeSchema serializes a schema model to JSON and returns it with its fingerprint
func SerializeSchema(model *schema.SchemaModel) (string, string, error) {
	if model == nil {
		return "", "", nil
	}
	data, err := json.Marshal(snapshot{EngineVersion: version.Version, Schema: model})
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize schema: %w", err)
	}
	return string(data), Fingerprint(string(data)), nil
}

// DeserializeSchema deserializes a JSON snapshot. Snapshots from an incompatible engine are rejected.
func DeserializeSchema(jsonStr string) (*schema.SchemaModel, error) {
	if jsonStr == "" {
		return nil, nil
	}
	var s snapshot
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize schema: %w", err)
	}
	if s.EngineVersion != "" {
		if err := version.CheckCompatible(s.EngineVersion, version.Version); err != nil {
			return nil, fmt.Errorf("failed to deserialize schema: %w", err)
		}
	}
	if s.Schema == nil {
		s.Schema = &schema.SchemaModel{}
	}
	return s.Schema, nil
}

// Fingerprint hashes a serialized snapshot.
func Fingerprint(data string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(data))
}
