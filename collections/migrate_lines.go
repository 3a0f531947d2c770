package collections

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase"
	"go.uber.org/zap"
)

// MigrateLineQuantityVariants repairs lines that carry both a variable
// reference and a formula, keeping the reference, and trims stray
// whitespace around either column. Safe to call on every startup --
// returns early if nothing to migrate.
func MigrateLineQuantityVariants(app *pocketbase.PocketBase) error {
	linesCol, err := app.FindCollectionByNameOrId("lines")
	if err != nil {
		return fmt.Errorf("migrate: could not find lines collection: %w", err)
	}

	candidates, err := app.FindRecordsByFilter(
		linesCol,
		"variable_ref != '' || formula != ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query lines: %w", err)
	}

	fixed := 0
	for _, line := range candidates {
		ref := line.GetString("variable_ref")
		expr := line.GetString("formula")

		newRef := strings.TrimSpace(ref)
		newExpr := strings.TrimSpace(expr)
		if newRef != "" {
			newExpr = ""
		}
		if newRef == ref && newExpr == expr {
			continue
		}

		line.Set("variable_ref", newRef)
		line.Set("formula", newExpr)
		if err := app.Save(line); err != nil {
			zap.L().Warn("migrate: failed to repair line quantity",
				zap.String("line", line.Id), zap.Error(err))
			continue
		}
		fixed++
	}

	if fixed > 0 {
		zap.L().Info("migrate: repaired line quantity variants", zap.Int("count", fixed))
	}
	return nil
}
