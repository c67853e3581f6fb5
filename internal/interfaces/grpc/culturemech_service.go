package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/reports"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/internal/validation"
)

// CultureMechService implements CultureMechCoreServer over a layer store and
// an in-memory report history, letting external fetchers push normalized_yaml
// records and poll run history over gRPC instead of the filesystem/CLI path.
type CultureMechService struct {
	Store   *layerstore.Store
	Reports *reports.Store
	Logger  logging.Logger
}

// NewCultureMechService builds a CultureMechService.
func NewCultureMechService(store *layerstore.Store, reportStore *reports.Store, logger logging.Logger) *CultureMechService {
	return &CultureMechService{Store: store, Reports: reportStore, Logger: logger}
}

// SubmitLayer3Record unmarshals the submitted YAML, runs the structural
// validation pass, and writes the record to the normalized_yaml layer only
// if it passes. Term and reference passes are the caller's responsibility
// (they require an ontology.Service/ReferenceCache this ingestion path does
// not carry); a record accepted here may still be flagged by a later
// "validate" run.
func (s *CultureMechService) SubmitLayer3Record(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	source := fields["source"].GetStringValue()
	key := fields["key"].GetStringValue()
	yamlContent := fields["yaml_content"].GetStringValue()

	if source == "" || key == "" {
		return nil, status.Error(codes.InvalidArgument, "source and key are required")
	}

	var r recipe.Recipe
	if err := yaml.Unmarshal([]byte(yamlContent), &r); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid yaml_content: %s", err.Error())
	}

	report := validation.ValidateOne(ctx, key, &r, nil, nil, validation.Config{StrictReferences: false})

	var validationErrors []interface{}
	for _, issue := range report.Issues {
		validationErrors = append(validationErrors, issue.Field+": "+issue.Message)
	}

	accepted := !report.Fatal && len(report.Issues) == 0
	if accepted {
		if err := s.Store.PutRecipe(layerstore.LayerNormalized, source, key, &r); err != nil {
			return nil, status.Errorf(codes.Internal, "write failed: %s", err.Error())
		}
		s.Logger.Info("grpc record accepted", logging.String("source", source), logging.String("key", key))
	} else {
		s.Logger.Warn("grpc record rejected",
			logging.String("source", source),
			logging.String("key", key),
			logging.Int("issues", len(report.Issues)),
		)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"accepted":          accepted,
		"validation_errors": validationErrors,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "building response: %s", err.Error())
	}
	return out, nil
}

// GetRunReport returns the most recently recorded stats.RunReport for the
// named command.
func (s *CultureMechService) GetRunReport(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	command := req.GetValue()
	report, ok := s.Reports.LatestRunReport(command)
	if !ok {
		return structpb.NewStruct(map[string]interface{}{"found": false})
	}
	return structpb.NewStruct(map[string]interface{}{
		"found":     true,
		"command":   report.Command,
		"total":     float64(report.Total),
		"succeeded": float64(report.Succeeded),
		"failed":    float64(report.Failed),
		"exit_code": float64(report.ExitCode),
	})
}

// GetMappingStats returns the most recently recorded mapping cascade snapshot.
func (s *CultureMechService) GetMappingStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ms, ok := s.Reports.LatestMappingStats()
	if !ok {
		return structpb.NewStruct(map[string]interface{}{"found": false})
	}
	return structpb.NewStruct(map[string]interface{}{
		"found":           true,
		"total":           float64(ms.Total),
		"unmapped_count":  float64(ms.UnmappedCount),
		"mean_confidence": ms.MeanConfidence(),
		"mapped_fraction": ms.MappedFraction(),
	})
}
