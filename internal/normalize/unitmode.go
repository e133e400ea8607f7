package normalize

import "svfrontend/internal/common"

// UnitMode selects which compilation-unit directory cache and log output
// are written under: whole-project (the default) or per-file, toggled by
// -fileunit or a manifest's unit-mode key.
type UnitMode int

const (
	UnitModeWholeProject UnitMode = iota
	UnitModePerFile
)

// DirName returns the on-disk directory component for m: slpp_all for
// whole-project, slpp_unit for per-file.
func (m UnitMode) DirName() string {
	if m == UnitModePerFile {
		return common.UnitDirName
	}
	return common.AllDirName
}

// parseUnitMode decodes a manifest's unit-mode string. An unrecognized
// value reports ok=false so the caller can warn and fall back to the
// current default instead of silently misinterpreting it.
func parseUnitMode(s string) (mode UnitMode, ok bool) {
	switch s {
	case "per-file":
		return UnitModePerFile, true
	case "whole-project":
		return UnitModeWholeProject, true
	default:
		return UnitModeWholeProject, false
	}
}
