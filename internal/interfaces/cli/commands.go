package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/composition"
	"github.com/culturemech/culturemech/internal/convert"
	"github.com/culturemech/culturemech/internal/curation"
	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/importer"
	"github.com/culturemech/culturemech/internal/infrastructure/database/postgres"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/mapping"
	"github.com/culturemech/culturemech/internal/merge"
	"github.com/culturemech/culturemech/internal/normalizer"
	"github.com/culturemech/culturemech/internal/ontology"
	"github.com/culturemech/culturemech/internal/quality"
	"github.com/culturemech/culturemech/internal/repair"
	"github.com/culturemech/culturemech/internal/stats"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/internal/validation"
)

// allSources is the store.Scan/ScanRecipes "every source" sentinel.
const allSources = ""

func dryRunFlag(cmd *cobra.Command) *bool {
	var dryRun bool
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "perform all computation but write nothing")
	return &dryRun
}

func sourceFlag(cmd *cobra.Command) *string {
	var source string
	cmd.Flags().StringVar(&source, "source", "", "restrict to one source (default: every source)")
	return &source
}

func loadAllNormalized(store *layerstore.Store, source string) (map[string]*recipe.Recipe, error) {
	out := make(map[string]*recipe.Recipe)
	err := store.ScanRecipes(layerstore.LayerNormalized, source, func(key string, r *recipe.Recipe) error {
		out[key] = r
		return nil
	})
	return out, err
}

// ─────────────────────────────────────────────────────────────────────────────
// convert — Layer 1 → Layer 2
// ─────────────────────────────────────────────────────────────────────────────

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Regenerate Layer 2 (raw_yaml) from Layer 1 (raw) for every source",
	}
	dryRun := dryRunFlag(cmd)
	source := sourceFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("convert", *dryRun, cliCtx.Metrics)
		c := convert.New()
		fetchDate := time.Now().UTC()

		var records []layerstore.Record
		if *source == allSources {
			records, err = c.ConvertAll(cliCtx.Store, fetchDate)
		} else {
			records, err = c.ConvertSource(cliCtx.Store, *source, fetchDate)
		}
		if err != nil {
			return err
		}
		for _, rec := range records {
			report.Record(rec.Source+"/"+rec.Key, nil)
		}
		if !*dryRun {
			err = cliCtx.Store.Regenerate(layerstore.LayerRawYAML, func() ([]layerstore.Record, error) {
				return records, nil
			})
			if err != nil {
				return err
			}
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// import — Layer 2 → Layer 3 (reference synthetic importer only; real
// sources are external collaborators built against internal/importer)
// ─────────────────────────────────────────────────────────────────────────────

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run the reference synthetic importer, writing new Layer-3 records",
	}
	dryRun := dryRunFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("import", *dryRun, cliCtx.Metrics)

		records, err := importer.ImportSynthetic(cliCtx.Store)
		if err != nil {
			report.Record(importer.SyntheticSource, err)
			return emitReport(cmd, cliCtx, report.Build())
		}
		for _, rec := range records {
			report.Record(rec.Source+"/"+rec.Key, nil)
			if *dryRun {
				continue
			}
			if err := cliCtx.Store.Put(layerstore.LayerNormalized, rec.Source, rec.Key, rec.Content); err != nil {
				return err
			}
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// repair — YAML auto-repair pass over Layer 3
// ─────────────────────────────────────────────────────────────────────────────

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Heal malformed or schema-nonconformant Layer-3 files, quarantining the unfixable",
	}
	dryRun := dryRunFlag(cmd)
	source := sourceFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("repair", *dryRun, cliCtx.Metrics)

		err = cliCtx.Store.Scan(layerstore.LayerNormalized, *source, func(rec layerstore.Record) error {
			path := rec.Source + "/" + rec.Key
			result, rerr := repair.Repair(rec.Content, cliCtx.Curator)
			if rerr != nil {
				report.Record(path, rerr)
				return nil
			}
			if result.Unfixable {
				report.Record(path, fmt.Errorf("repair: %s unfixable: %s", path, result.Reason))
				if !*dryRun {
					if err := cliCtx.Store.Quarantine(rec.Source, rec.Key, rec.Content); err != nil {
						return err
					}
				}
				return nil
			}
			report.Record(path, nil)
			if !*dryRun && len(result.StagesApplied) > 0 {
				if err := cliCtx.Store.Put(layerstore.LayerNormalized, rec.Source, rec.Key, result.Bytes); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// resolve-composition — KOMODO↔DSMZ cross-source enrichment
// ─────────────────────────────────────────────────────────────────────────────

func newResolveCompositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve-composition",
		Short: "Enrich placeholder-only KOMODO recipes from their matching DSMZ medium",
	}
	dryRun := dryRunFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("resolve-composition", *dryRun, cliCtx.Metrics)

		byKey, err := loadAllNormalized(cliCtx.Store, allSources)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(byKey))
		var dsmz []*recipe.Recipe
		var all []*recipe.Recipe
		for key, r := range byKey {
			keys = append(keys, key)
			all = append(all, r)
			if r.Provenance.SourceDB == "DSMZ" {
				dsmz = append(dsmz, r)
			}
		}

		resolver := composition.NewKOMODODSMZResolver(dsmz)
		outcome := resolver.ResolveAll(all, cliCtx.Curator)

		resolvedSet := make(map[string]bool, len(outcome.Resolved))
		for _, id := range outcome.Resolved {
			resolvedSet[id] = true
		}
		for _, key := range keys {
			r := byKey[key]
			if !resolvedSet[r.ID] {
				continue
			}
			report.Record(key, nil)
			if *dryRun {
				continue
			}
			if err := cliCtx.Store.PutRecipe(layerstore.LayerNormalized, r.Provenance.SourceDB, key, r); err != nil {
				return err
			}
		}
		for _, u := range outcome.Unresolved {
			report.Record(u.RecipeID, fmt.Errorf("composition: %s: %s", u.RecipeID, u.Reason))
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// tag-quality — idempotent quality-flag tagging
// ─────────────────────────────────────────────────────────────────────────────

func newTagQualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag-quality",
		Short: "Attach quality flags (incomplete_composition, pending_curation, low_confidence) to Layer-3 recipes",
	}
	dryRun := dryRunFlag(cmd)
	source := sourceFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("tag-quality", *dryRun, cliCtx.Metrics)

		byKey, err := loadAllNormalized(cliCtx.Store, *source)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(byKey))
		recipes := make([]*recipe.Recipe, 0, len(byKey))
		for key, r := range byKey {
			keys = append(keys, key)
			recipes = append(recipes, r)
		}

		if _, err := quality.TagBatch(context.Background(), recipes, nil); err != nil {
			return err
		}

		for i, r := range recipes {
			report.Record(keys[i], nil)
			if *dryRun {
				continue
			}
			if err := cliCtx.Store.PutRecipe(layerstore.LayerNormalized, r.Provenance.SourceDB, keys[i], r); err != nil {
				return err
			}
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// map — ontology mapping cascade over every unmapped ingredient name
// ─────────────────────────────────────────────────────────────────────────────

func buildOntologyClients(cliCtx *CLIContext) (*ontology.Clients, error) {
	return ontology.NewClients(cliCtx.Config.Ontology, cliCtx.Config.OpenSearch, nil, cliCtx.Logger)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Resolve every reachable ingredient name to an ontology term via the mapping cascade",
	}
	dryRun := dryRunFlag(cmd)
	source := sourceFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("map", *dryRun, cliCtx.Metrics)

		clients, err := buildOntologyClients(cliCtx)
		if err != nil {
			return err
		}
		defer clients.Close()
		cascade := mapping.NewCascade(clients, cliCtx.Config.Ontology.FuzzyThreshold, cliCtx.Logger)

		byKey, err := loadAllNormalized(cliCtx.Store, *source)
		if err != nil {
			return err
		}

		occurrences := make(map[string]int)
		for _, r := range byKey {
			for _, ing := range r.AllIngredients() {
				if ing.Term != nil || ing.IsPlaceholder() {
					continue
				}
				occurrences[ing.PreferredTerm]++
			}
		}
		batch := make([]mapping.IngredientOccurrence, 0, len(occurrences))
		for name, count := range occurrences {
			batch = append(batch, mapping.IngredientOccurrence{Name: name, Count: count})
		}

		results, mstats := cascade.ResolveBatch(context.Background(), batch)
		for _, m := range results {
			report.Record(m.SubjectID, nil)
		}
		cliCtx.Logger.Info("mapping cascade complete",
			logging.Float64("mapped_fraction", mstats.MappedFraction()),
			logging.Float64("mean_confidence", mstats.MeanConfidence()))

		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// merge — ingredient-set fingerprint merge, Layer 3 → Layer 4
// ─────────────────────────────────────────────────────────────────────────────

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Group Layer-3 recipes by ingredient-set fingerprint and write canonical Layer-4 records",
	}
	dryRun := dryRunFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("merge", *dryRun, cliCtx.Metrics)

		byKey, err := loadAllNormalized(cliCtx.Store, allSources)
		if err != nil {
			return err
		}
		recipes := make([]*recipe.Recipe, 0, len(byKey))
		for _, r := range byKey {
			recipes = append(recipes, r)
		}

		merged, mergeStats := merge.Merge(recipes, normalizer.Normalize, cliCtx.Curator, 0, 5)
		cliCtx.Metrics.MergeReduction.Set(mergeStats.ReductionPercentage)

		var records []layerstore.Record
		for _, m := range merged {
			content, err := yaml.Marshal(m)
			if err != nil {
				report.Record(m.ID, err)
				continue
			}
			report.Record(m.ID, nil)
			records = append(records, layerstore.Record{
				Source:  m.Provenance.SourceDB,
				Key:     importer.Filename(m.Provenance.SourceDB, m.Provenance.SourceID, m.Name),
				Content: content,
			})
		}

		if !*dryRun {
			err = cliCtx.Store.Regenerate(layerstore.LayerMerge, func() ([]layerstore.Record, error) {
				return records, nil
			})
			if err != nil {
				return err
			}
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// validate — three-pass validation gate
// ─────────────────────────────────────────────────────────────────────────────

type nopReferenceCache struct{}

func (nopReferenceCache) Lookup(ctx context.Context, reference string) (string, bool, error) {
	return "", false, nil
}

func buildReferenceCache(cliCtx *CLIContext) validation.ReferenceCache {
	pool, err := postgres.NewConnectionPool(cliCtx.Config.Database, cliCtx.Logger)
	if err != nil {
		cliCtx.Logger.Warn("reference cache unavailable, reference validation will report every reference unresolved")
		return nopReferenceCache{}
	}
	return postgres.NewReferenceCache(pool)
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the structural, terms, and references validation passes over Layer-3 recipes",
	}
	source := sourceFlag(cmd)
	var lenient bool
	cmd.Flags().BoolVar(&lenient, "lenient-references", false, "treat an unresolvable reference snippet as a non-fatal issue")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("validate", true, cliCtx.Metrics)

		clients, err := buildOntologyClients(cliCtx)
		if err != nil {
			return err
		}
		defer clients.Close()
		cache := buildReferenceCache(cliCtx)

		byKey, err := loadAllNormalized(cliCtx.Store, *source)
		if err != nil {
			return err
		}

		vcfg := validation.Config{StrictReferences: !lenient}
		reports, _, err := validation.Validate(context.Background(), byKey, clients.OLS, cache, vcfg)
		if err != nil {
			return err
		}
		for path, vr := range reports {
			if vr.Passed {
				report.Record(path, nil)
				continue
			}
			report.Record(path, fmt.Errorf("validate: %s failed %d issue(s)", path, len(vr.Issues)))
		}
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// curate — apply one curator-supplied mutation through the audit-logged path
// ─────────────────────────────────────────────────────────────────────────────

func newCurateCmd() *cobra.Command {
	var action, notes, addFlag string
	cmd := &cobra.Command{
		Use:   "curate <source> <key>",
		Short: "Apply a single curator mutation (currently: --add-flag) to one Layer-3 recipe, audit-logged",
		Args:  cobra.ExactArgs(2),
	}
	dryRun := dryRunFlag(cmd)
	cmd.Flags().StringVar(&action, "action", "manual_curation", "action recorded in the curation event")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text note recorded in the curation event")
	cmd.Flags().StringVar(&addFlag, "add-flag", "", "quality flag to add (e.g. pending_curation)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		report := stats.NewBuilder("curate", *dryRun, cliCtx.Metrics)
		source, key := args[0], args[1]
		path, err := cliCtx.Store.Path(layerstore.LayerNormalized, source, key)
		if err != nil {
			return err
		}

		if *dryRun {
			report.Record(path, nil)
			return emitReport(cmd, cliCtx, report.Build())
		}

		_, err = curation.Update(path, cliCtx.Curator, action, notes, func(r *recipe.Recipe) error {
			if addFlag != "" {
				r.AddQualityFlag(recipe.QualityFlag(addFlag))
			}
			return nil
		})
		report.Record(path, err)
		return emitReport(cmd, cliCtx, report.Build())
	}
	return cmd
}
