package electrolyte

import "errors"

var (
	// ErrNotFound reports a name absent from both layers.
	ErrNotFound = errors.New("no such component")

	// ErrDefaultComponent reports an attempt to remove a bundled
	// component. Distinct from ErrNotFound so callers can message the
	// two cases differently.
	ErrDefaultComponent = errors.New("cannot remove default component")

	// ErrNoConfigDir means neither XDG_CONFIG_HOME nor HOME is set.
	ErrNoConfigDir = errors.New("cannot determine config directory (set XDG_CONFIG_HOME or HOME)")

	// ErrConfigInvalid reports an unparseable config file.
	ErrConfigInvalid = errors.New("invalid config file")

	// ErrDataDirEmpty reports a config file that sets data_dir to "".
	ErrDataDirEmpty = errors.New("data_dir cannot be empty")
)
