package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"framekeep/internal/faults"
)

// assetFieldsFormatVersion is the only accepted json_fields contract version.
const assetFieldsFormatVersion = "1.0"

// ValidateAssetJSONFields checks a caller-supplied json_fields document
// against the v1 asset metadata contract. Empty input is valid (no
// structured metadata). Violations surface as ValidationFailed.
func ValidateAssetJSONFields(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return faults.Wrap(faults.ErrValidation, "store", "asset json_fields", "expected JSON object", err)
	}

	required := []string{"format_version", "asset_type", "invariants", "variables", "prompt"}
	allowed := map[string]struct{}{
		"format_version": {}, "asset_type": {}, "invariants": {}, "variables": {},
		"prompt": {}, "display": {}, "references": {},
	}

	var missing []string
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fieldsErr("missing required fields: " + strings.Join(missing, ", "))
	}
	var extra []string
	for key := range payload {
		if _, ok := allowed[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fieldsErr("unknown fields: " + strings.Join(extra, ", "))
	}

	formatVersion, ok := payload["format_version"].(string)
	if !ok || formatVersion != assetFieldsFormatVersion {
		return fieldsErr(fmt.Sprintf("format_version must be %q", assetFieldsFormatVersion))
	}

	assetType, ok := payload["asset_type"].(string)
	if !ok || !ValidAssetType(AssetType(assetType)) {
		return fieldsErr(fmt.Sprintf("asset_type must be a known asset type, got %v", payload["asset_type"]))
	}

	if _, ok := payload["invariants"].(map[string]any); !ok {
		return fieldsErr("invariants must be an object")
	}
	if _, ok := payload["variables"].(map[string]any); !ok {
		return fieldsErr("variables must be an object")
	}

	prompt, ok := payload["prompt"].(map[string]any)
	if !ok {
		return fieldsErr("prompt must be an object")
	}
	if err := validatePromptBlock(prompt); err != nil {
		return err
	}

	if display, present := payload["display"]; present {
		if err := validateDisplayBlock(display); err != nil {
			return err
		}
	}
	if refs, present := payload["references"]; present {
		if err := validateReferencesBlock(refs); err != nil {
			return err
		}
	}
	return nil
}

func validatePromptBlock(prompt map[string]any) error {
	required := []string{"positive_fragment", "negative_fragment", "tokens"}
	var missing []string
	for _, key := range required {
		if _, ok := prompt[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fieldsErr("prompt missing required fields: " + strings.Join(missing, ", "))
	}
	var extra []string
	for key := range prompt {
		switch key {
		case "positive_fragment", "negative_fragment", "tokens":
		default:
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fieldsErr("prompt has unknown fields: " + strings.Join(extra, ", "))
	}
	if _, ok := prompt["positive_fragment"].(string); !ok {
		return fieldsErr("prompt.positive_fragment must be a string")
	}
	if _, ok := prompt["negative_fragment"].(string); !ok {
		return fieldsErr("prompt.negative_fragment must be a string")
	}
	if _, ok := prompt["tokens"].(map[string]any); !ok {
		return fieldsErr("prompt.tokens must be an object")
	}
	return nil
}

func validateDisplayBlock(display any) error {
	block, ok := display.(map[string]any)
	if !ok {
		return fieldsErr("display must be an object")
	}
	for key, value := range block {
		switch key {
		case "name", "description":
			if _, ok := value.(string); !ok {
				return fieldsErr("display." + key + " must be a string")
			}
		default:
			return fieldsErr("display has unknown field: " + key)
		}
	}
	return nil
}

func validateReferencesBlock(refs any) error {
	block, ok := refs.(map[string]any)
	if !ok {
		return fieldsErr("references must be an object")
	}
	for key, value := range block {
		switch key {
		case "image_paths":
			paths, ok := value.([]any)
			if !ok {
				return fieldsErr("references.image_paths must be an array")
			}
			for i, p := range paths {
				if _, ok := p.(string); !ok {
					return fieldsErr(fmt.Sprintf("references.image_paths[%d] must be a string", i))
				}
			}
		case "pose_id", "mask_id", "control_guide_id":
			if _, ok := value.(string); !ok {
				return fieldsErr("references." + key + " must be a string")
			}
		default:
			return fieldsErr("references has unknown field: " + key)
		}
	}
	return nil
}

func fieldsErr(message string) error {
	return faults.Wrap(faults.ErrValidation, "store", "asset json_fields", message, nil)
}
