package post

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/plumline/promoboard/internal/common"
	"github.com/plumline/promoboard/internal/content"
	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/pricing"
	"github.com/plumline/promoboard/internal/product"
	"github.com/plumline/promoboard/internal/reviews"
)

// Enqueuer is the queue client surface the service depends on.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DiscountInput is one code-bearing discount entered by the operator.
type DiscountInput struct {
	Code  string  `json:"code"`
	Value float64 `json:"value" validate:"gte=0"`
}

// Input describes a post to preview or publish. Currency is explicit; the
// magnitude heuristic only applies to raw spreadsheet strings.
type Input struct {
	TargetURL    string         `json:"target_url" validate:"required,url"`
	Destination  string         `json:"destination" validate:"required,oneof=cafe band"`
	Currency     string         `json:"currency" validate:"required,oneof=KRW USD"`
	BasePrice    float64        `json:"base_price" validate:"gte=0"`
	DiscountCode *DiscountInput `json:"discount_code,omitempty"`
	StoreCoupon  *DiscountInput `json:"store_coupon,omitempty"`
	CoinValue    float64        `json:"coin_value,omitempty" validate:"gte=0"`
	CardDiscount *DiscountInput `json:"card_discount,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	SheetRow     int            `json:"sheet_row,omitempty" validate:"gte=0"`
}

// Preview is the rendered post before anything is stored or published.
type Preview struct {
	Subject string         `json:"subject"`
	HTML    string         `json:"html"`
	Text    string         `json:"text"`
	Product product.Info   `json:"product"`
	Reviews []string       `json:"reviews"`
	Pricing pricing.Result `json:"pricing"`
}

// Service orchestrates preview rendering, persistence and publish enqueueing.
type Service struct {
	Store    Store
	Products product.Provider
	Reviews  reviews.Provider
	Queue    Enqueuer
	Validate *validator.Validate

	CoinMode        pricing.CoinMode
	Rounding        pricing.Rounding
	Footer          string
	PublishMaxRetry int

	Logger zerolog.Logger
}

// Preview enriches the input with product and review metadata and renders
// both post bodies. Review fetch failures degrade to a post without reviews.
func (s *Service) Preview(ctx context.Context, input Input) (Preview, error) {
	if err := s.Validate.Struct(input); err != nil {
		obs.PreviewsTotal.WithLabelValues("invalid").Inc()
		return Preview{}, common.ValidationError(err)
	}

	infos, err := s.Products.Fetch(ctx, []string{input.TargetURL})
	if err != nil {
		obs.PreviewsTotal.WithLabelValues("error").Inc()
		return Preview{}, common.UpstreamError("failed to fetch product metadata", err)
	}
	info := product.Info{TargetURL: input.TargetURL}
	if len(infos) > 0 {
		info = infos[0]
	}

	highlights, err := s.Reviews.Fetch(ctx, input.TargetURL)
	if err != nil {
		s.Logger.Warn().Err(err).Str("target_url", input.TargetURL).Msg("review fetch failed, continuing without reviews")
		highlights = nil
	}

	result := pricing.Compute(
		pricing.NewAmount(input.BasePrice, pricing.Currency(input.Currency)),
		s.lines(input),
		s.CoinMode,
		s.Rounding,
	)

	post := content.Post{
		Title:      info.Title,
		ProductURL: input.TargetURL,
		ImageURL:   info.ImageURL,
		SaleVolume: info.SaleVolume,
		Pricing:    &result,
		Reviews:    highlights,
		Tags:       input.Tags,
		Footer:     s.Footer,
	}
	if post.Title == "" {
		post.Title = input.TargetURL
	}

	html, err := post.RenderHTML()
	if err != nil {
		obs.PreviewsTotal.WithLabelValues("error").Inc()
		return Preview{}, common.InternalError("failed to render post", err)
	}

	obs.PreviewsTotal.WithLabelValues("ok").Inc()
	return Preview{
		Subject: post.Subject(),
		HTML:    html,
		Text:    post.RenderText(),
		Product: info,
		Reviews: highlights,
		Pricing: result,
	}, nil
}

// Publish stores the rendered post and enqueues it for delivery. The write
// and the queue insert are deliberately separate: a queue outage leaves a
// pending record the operator can retry.
func (s *Service) Publish(ctx context.Context, input Input) (Record, error) {
	preview, err := s.Preview(ctx, input)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		Destination: input.Destination,
		TargetURL:   input.TargetURL,
		Subject:     preview.Subject,
		BodyHTML:    preview.HTML,
		BodyText:    preview.Text,
		ImageURL:    preview.Product.ImageURL,
		SheetRow:    input.SheetRow,
		Status:      StatusPending,
	}
	id, err := s.Store.Insert(ctx, record)
	if err != nil {
		return Record{}, common.InternalError("failed to store post", err)
	}
	record.ID = id

	task, err := jobs.NewPublishTask(id.String(), s.PublishMaxRetry)
	if err != nil {
		return Record{}, common.InternalError("failed to build publish task", err)
	}
	if _, err := s.Queue.EnqueueContext(ctx, task); err != nil {
		s.Logger.Error().Err(err).Str("post_id", id.String()).Msg("publish enqueue failed")
		return Record{}, common.InternalError("failed to enqueue publish", err)
	}

	s.Logger.Info().Str("post_id", id.String()).Str("destination", input.Destination).Msg("post queued for publish")
	return record, nil
}

// Get returns one stored post.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Record{}, common.NotFoundError("post not found", err)
	}
	record, err := s.Store.Get(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, common.NotFoundError("post not found", err)
		}
		return Record{}, err
	}
	return record, nil
}

// List returns stored posts, newest first.
func (s *Service) List(ctx context.Context, status string, page, perPage int) ([]Record, int64, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	records, err := s.Store.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Service) lines(input Input) []pricing.Line {
	lines := make([]pricing.Line, 0, 4)
	if input.DiscountCode != nil {
		lines = append(lines, pricing.Line{Kind: pricing.LineDiscountCode, Code: input.DiscountCode.Code, Value: input.DiscountCode.Value})
	}
	if input.StoreCoupon != nil {
		lines = append(lines, pricing.Line{Kind: pricing.LineStoreCoupon, Code: input.StoreCoupon.Code, Value: input.StoreCoupon.Value})
	}
	lines = append(lines, pricing.Line{Kind: pricing.LineCoin, Value: input.CoinValue})
	if input.CardDiscount != nil {
		lines = append(lines, pricing.Line{Kind: pricing.LineCardDiscount, Code: input.CardDiscount.Code, Value: input.CardDiscount.Value})
	}
	return lines
}
