package profile

import (
	"encoding/json"
	"fmt"
)

// migration upgrades a decoded profile document from one schema version to
// the next. Steps only add keys that are missing, so applying the chain to
// an already upgraded document changes nothing.
type migration struct {
	from  int
	to    int
	name  string
	apply func(doc map[string]interface{}, env migrationEnv)
}

type migrationEnv struct {
	defaultOutputDir string
}

// migrations must stay ordered by from and contiguous.
var migrations = []migration{
	{from: 0, to: 1, name: "output paths and sheet types", apply: migrateV0ToV1},
	{from: 1, to: 2, name: "themes and per-module templates", apply: migrateV1ToV2},
}

func setDefault(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func eachModule(doc map[string]interface{}, fn func(module map[string]interface{})) {
	list, ok := doc["modules"].([]interface{})
	if !ok {
		return
	}
	for _, item := range list {
		if module, ok := item.(map[string]interface{}); ok {
			fn(module)
		}
	}
}

func migrateV0ToV1(doc map[string]interface{}, env migrationEnv) {
	setDefault(doc, "global_output_path", env.defaultOutputDir)
	eachModule(doc, func(module map[string]interface{}) {
		setDefault(module, "sheet_type", SheetPractical)
		setDefault(module, "custom_sheet_type", nil)
		setDefault(module, "output_path", nil)
		setDefault(module, "use_zero_padding", true)
	})
}

func migrateV1ToV2(doc map[string]interface{}, _ migrationEnv) {
	setDefault(doc, "theme", ThemeLight)
	setDefault(doc, "default_template", DefaultTemplateID)

	fallback := DefaultTemplateID
	if id, ok := doc["default_template"].(string); ok && id != "" {
		fallback = id
	}
	eachModule(doc, func(module map[string]interface{}) {
		setDefault(module, "template", fallback)
	})
}

// documentVersion reads schema_version; a missing key means the original
// unversioned layout.
func documentVersion(doc map[string]interface{}) (int, error) {
	raw, ok := doc["schema_version"]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid schema_version %d", v)
		}
		return v, nil
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, fmt.Errorf("invalid schema_version %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid schema_version %q", v.String())
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("invalid schema_version type %T", raw)
	}
}

// migrate upgrades doc in place to SchemaVersion and returns the version it
// started from. Every step runs whatever the declared version, since steps
// only fill keys that are missing. Documents newer than SchemaVersion keep
// their version number.
func migrate(doc map[string]interface{}, env migrationEnv) (int, error) {
	from, err := documentVersion(doc)
	if err != nil {
		return 0, err
	}

	for _, step := range migrations {
		step.apply(doc, env)
	}

	if from < SchemaVersion {
		doc["schema_version"] = SchemaVersion
	}
	return from, nil
}

// decodeProfile parses raw JSON, runs the migration chain and returns the
// typed profile together with the version found on disk.
func decodeProfile(data []byte, env migrationEnv) (*Profile, int, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parsing profile: %w", err)
	}
	if doc == nil {
		return nil, 0, fmt.Errorf("parsing profile: document is not an object")
	}

	from, err := migrate(doc, env)
	if err != nil {
		return nil, 0, err
	}

	upgraded, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("re-encoding profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(upgraded, &p); err != nil {
		return nil, 0, fmt.Errorf("decoding profile: %w", err)
	}
	if p.Modules == nil {
		p.Modules = []Module{}
	}
	return &p, from, nil
}
