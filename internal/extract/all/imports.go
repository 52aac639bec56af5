// Package all registers every extract source. Import it for side effects.
package all

import (
	_ "silorecon/internal/extract/csvsource"
	_ "silorecon/internal/extract/sqlsource"
)
