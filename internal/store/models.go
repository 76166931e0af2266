package store

import "strings"

// AssetType enumerates the fixed asset families.
type AssetType string

const (
	AssetCharacter    AssetType = "character"
	AssetEnvironment  AssetType = "environment"
	AssetCamera       AssetType = "camera"
	AssetLighting     AssetType = "lighting"
	AssetAction       AssetType = "action"
	AssetKeyframe     AssetType = "keyframe"
	AssetStyle        AssetType = "style"
	AssetPose         AssetType = "pose"
	AssetMask         AssetType = "mask"
	AssetControlGuide AssetType = "control_guide"
)

// AssetTypes lists every valid asset type in display order.
var AssetTypes = []AssetType{
	AssetCharacter,
	AssetEnvironment,
	AssetCamera,
	AssetLighting,
	AssetAction,
	AssetKeyframe,
	AssetStyle,
	AssetPose,
	AssetMask,
	AssetControlGuide,
}

// ValidAssetType reports whether t names a known asset family.
func ValidAssetType(t AssetType) bool {
	for _, known := range AssetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SaveMode selects the conflict behavior of an asset save.
type SaveMode string

const (
	// SaveModeNew fails when a live asset with the same type+name exists.
	SaveModeNew SaveMode = "new"
	// SaveModeOverwriteByName updates the existing row in place, keeping its id.
	SaveModeOverwriteByName SaveMode = "overwrite_by_name"
	// SaveModeNewVersionOfName inserts a successor row linked via parent_id.
	SaveModeNewVersionOfName SaveMode = "new_version_of_name"
)

// ValidSaveMode reports whether m is a recognized save mode.
func ValidSaveMode(m SaveMode) bool {
	switch m {
	case SaveModeNew, SaveModeOverwriteByName, SaveModeNewVersionOfName:
		return true
	}
	return false
}

// Asset is a reusable, versioned prompt/media fragment. Timestamps are
// epoch milliseconds. Version chains link through ParentID.
type Asset struct {
	ID               string
	Type             AssetType
	Name             string
	Description      string
	Tags             []string
	PositiveFragment string
	NegativeFragment string
	JSONFields       string
	ImagePath        string
	ThumbPath        string
	ImageHash        string
	CreatedAt        int64
	UpdatedAt        int64
	Version          int
	ParentID         string
	IsArchived       bool
}

// Stack is a named bundle of up to six optional asset references.
type Stack struct {
	ID            string
	Name          string
	Notes         string
	CharacterID   string
	EnvironmentID string
	ActionID      string
	CameraID      string
	LightingID    string
	StyleID       string
	JSONOverrides string
	CreatedAt     int64
	UpdatedAt     int64
	IsArchived    bool
}

// SlotRefs returns the slot name to asset id mapping in fixed order,
// skipping empty slots.
func (st *Stack) SlotRefs() []SlotRef {
	if st == nil {
		return nil
	}
	refs := make([]SlotRef, 0, 6)
	for _, slot := range []SlotRef{
		{Slot: "character_id", AssetID: st.CharacterID},
		{Slot: "environment_id", AssetID: st.EnvironmentID},
		{Slot: "action_id", AssetID: st.ActionID},
		{Slot: "camera_id", AssetID: st.CameraID},
		{Slot: "lighting_id", AssetID: st.LightingID},
		{Slot: "style_id", AssetID: st.StyleID},
	} {
		if slot.AssetID == "" {
			continue
		}
		refs = append(refs, slot)
	}
	return refs
}

// SlotRef names one occupied stack slot.
type SlotRef struct {
	Slot    string `json:"slot"`
	AssetID string `json:"asset_id"`
}

// KeyframeSet is one generation job: a frozen stack reference plus the
// parameters used to produce its variants. PickedIndex is nil until a
// winner is marked.
type KeyframeSet struct {
	ID                string
	Name              string
	StackID           string
	VariantPolicyID   string
	VariantPolicyJSON string
	BaseSeed          int64
	Width             int
	Height            int
	ModelRef          string
	CreatedAt         int64
	UpdatedAt         int64
	PickedIndex       *int
	Notes             string
}

// KeyframeSetItem is one variant/seed slot within a set. Empty media paths
// mean "not yet rendered".
type KeyframeSetItem struct {
	ID             string
	SetID          string
	Idx            int
	Seed           int64
	PositivePrompt string
	NegativePrompt string
	GenParamsJSON  string
	ImagePath      string
	ThumbPath      string
	ScoreJSON      string
	CreatedAt      int64
}

// SeedBankEntry records a seed worth reusing, deduplicated by
// (seed, context_hash).
type SeedBankEntry struct {
	ID             int64
	Seed           int64
	CreatedAt      int64
	PromptHash     string
	ContextHash    string
	Checkpoint     string
	Sampler        string
	Scheduler      string
	Steps          int
	CFG            float64
	Width          int
	Height         int
	PositivePrompt string
	NegativePrompt string
	TagsCSV        string
	Note           string
	ContextJSON    string
}

// Tags splits TagsCSV into trimmed, non-empty tag names.
func (e *SeedBankEntry) Tags() []string {
	if e == nil || e.TagsCSV == "" {
		return nil
	}
	parts := strings.Split(e.TagsCSV, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
