package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/config"
	"github.com/farhapartex/adlibrary-proxy/internal/formbody"
	"github.com/farhapartex/adlibrary-proxy/internal/handlers"
	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxItemLength = 500

var validStatuses = map[string]string{
	"active":   "Active",
	"inactive": "Inactive",
	"paused":   "Paused",
	"both":     "Both",
	"all":      "Both",
}

type Server struct {
	batchHandler *handlers.BatchHandler
	config       *config.Config
	logger       logger.Logger
}

func NewServer(cfg *config.Config, log logger.Logger) *Server {
	return NewServerWithHandler(cfg, handlers.NewBatchHandler(cfg, log), log)
}

func NewServerWithHandler(cfg *config.Config, h *handlers.BatchHandler, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		batchHandler: h,
		config:       cfg,
		logger:       log,
	}
}

func (s *Server) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	batch, err := s.parseSearchRequest(req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Received search request",
		logger.String("mode", string(batch.Mode)),
		logger.Int("items", len(batch.Items)),
		logger.String("country", batch.Filters.Country),
	)

	searchCtx, cancel := context.WithTimeout(ctx, s.config.Server.ServerTimeout)
	defer cancel()

	startTime := time.Now()
	result := s.batchHandler.Run(searchCtx, batch)

	response, err := buildResponse(result, len(batch.Items), time.Since(startTime))
	if err != nil {
		s.logger.Error("Failed to build response", logger.Error(err))
		return nil, status.Error(codes.Internal, fmt.Sprintf("build response: %v", err))
	}

	return response, nil
}

// parseSearchRequest validates the request and fills unset filters from config.
func (s *Server) parseSearchRequest(req *structpb.Struct) (handlers.BatchRequest, error) {
	fields := req.GetFields()

	mode, err := models.ParseSearchMode(stringValue(fields, "mode"))
	if err != nil {
		return handlers.BatchRequest{}, status.Error(codes.InvalidArgument, err.Error())
	}

	items := itemsValue(fields["items"])
	if len(items) == 0 {
		return handlers.BatchRequest{}, status.Error(codes.InvalidArgument, "items cannot be empty")
	}
	if len(items) > s.config.Server.MaxBatchItems {
		return handlers.BatchRequest{}, status.Error(codes.InvalidArgument,
			fmt.Sprintf("too many items (max %d)", s.config.Server.MaxBatchItems))
	}
	for _, item := range items {
		if len(item) > maxItemLength {
			return handlers.BatchRequest{}, status.Error(codes.InvalidArgument,
				fmt.Sprintf("item too long (max %d characters)", maxItemLength))
		}
	}

	filters := handlers.DefaultFilters(s.config)
	if v := stringValue(fields, "status"); v != "" {
		canonical, ok := validStatuses[strings.ToLower(v)]
		if !ok {
			return handlers.BatchRequest{}, status.Error(codes.InvalidArgument,
				fmt.Sprintf("invalid status: %s (valid: Active, Inactive, Paused, Both)", v))
		}
		filters.Status = canonical
	}
	if v := stringValue(fields, "country"); v != "" {
		filters.Country = v
	}
	if v := stringValue(fields, "session_id"); v != "" {
		filters.SessionID = v
	}
	if v := stringValue(fields, "version"); v != "" {
		filters.Version = v
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	filters.StartDate, err = dateValue(fields, "start_date", today)
	if err != nil {
		return handlers.BatchRequest{}, err
	}
	filters.EndDate, err = dateValue(fields, "end_date", today)
	if err != nil {
		return handlers.BatchRequest{}, err
	}
	if filters.EndDate.Before(filters.StartDate) {
		return handlers.BatchRequest{}, status.Error(codes.InvalidArgument, "end_date cannot be before start_date")
	}

	session := handlers.DefaultSession(s.config)
	if v := stringValue(fields, "cookie"); v != "" {
		session.Cookie = v
	}
	if v := stringValue(fields, "lsd"); v != "" {
		session.LSD = v
	}

	form, err := formValue(fields)
	if err != nil {
		return handlers.BatchRequest{}, status.Error(codes.InvalidArgument, err.Error())
	}

	return handlers.BatchRequest{
		Mode:    mode,
		Items:   items,
		Filters: filters,
		Session: session,
		Form:    form,
	}, nil
}

func stringValue(fields map[string]*structpb.Value, key string) string {
	return strings.TrimSpace(fields[key].GetStringValue())
}

// itemsValue accepts either a list of strings or one comma separated string.
func itemsValue(v *structpb.Value) []string {
	if list := v.GetListValue(); list != nil {
		items := make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			if s := strings.TrimSpace(item.GetStringValue()); s != "" {
				items = append(items, s)
			}
		}
		return items
	}
	return handlers.SplitItems(v.GetStringValue())
}

func dateValue(fields map[string]*structpb.Value, key string, fallback time.Time) (time.Time, error) {
	raw := stringValue(fields, key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument,
			fmt.Sprintf("invalid %s: %q (expected YYYY-MM-DD)", key, raw))
	}
	return t, nil
}

// formValue reads the body either from a "form" struct or from "form_text"
// in the format named by "form_format".
func formValue(fields map[string]*structpb.Value) (url.Values, error) {
	if st := fields["form"].GetStructValue(); st != nil {
		return formbody.FromMap(st.AsMap())
	}
	text := fields["form_text"].GetStringValue()
	if text == "" {
		return url.Values{}, nil
	}
	format, err := formbody.ParseFormat(fields["form_format"].GetStringValue())
	if err != nil {
		return nil, err
	}
	return formbody.Parse(format, text)
}

func buildResponse(result *handlers.BatchResult, queried int, elapsed time.Duration) (*structpb.Struct, error) {
	records := make([]any, 0, len(result.Records))
	for _, r := range result.Records {
		m, err := recordMap(r)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}

	items := make([]any, 0, len(result.Items))
	for _, item := range result.Items {
		statusCodes := make([]any, 0, len(item.StatusCodes))
		for _, c := range item.StatusCodes {
			statusCodes = append(statusCodes, float64(c))
		}
		entry := map[string]any{
			"item":         item.Item,
			"records":      float64(item.RawCount),
			"pages":        float64(item.Pages),
			"status_codes": statusCodes,
			"duration_ms":  float64(item.Duration.Milliseconds()),
			"ok":           item.OK(),
		}
		if item.Error != nil {
			entry["error"] = item.Error.Error()
		}
		items = append(items, entry)
	}

	return structpb.NewStruct(map[string]any{
		"run_id":      result.RunID,
		"records":     records,
		"items":       items,
		"total_count": float64(len(records)),
		"metadata": map[string]any{
			"response_time_ms": float64(elapsed.Milliseconds()),
			"items_queried":    float64(queried),
			"items_failed":     float64(len(result.Failed())),
		},
	})
}

func recordMap(r models.CanonicalRecord) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return m, nil
}
