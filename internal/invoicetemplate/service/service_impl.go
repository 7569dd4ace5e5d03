package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"

	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultLogoMaxBytes = 1 << 20

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	logoMaxBytes int
	repo         domain.Repository
	auditSvc     auditdomain.Service
}

func New(p Params) domain.Service {
	maxBytes := p.Config.LogoMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultLogoMaxBytes
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoicetemplate.service"),
		clock:        p.Clock,
		logoMaxBytes: maxBytes,
		repo:         p.Repo,
		auditSvc:     p.AuditSvc,
	}
}

func (s *Service) Template(ctx context.Context) (domain.Template, error) {
	tmpl, err := s.repo.FindTemplate(ctx, s.db, domain.MainTemplateID)
	if err != nil {
		return domain.Template{}, err
	}
	if tmpl == nil {
		return domain.DefaultTemplate(), nil
	}
	return *tmpl, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, req domain.UpdateRequest) (domain.Template, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return domain.Template{}, err
	}

	var saved domain.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindTemplate(ctx, tx, domain.MainTemplateID)
		if err != nil {
			return err
		}
		tmpl := domain.DefaultTemplate()
		if current != nil {
			tmpl = *current
		}
		if err := apply(&tmpl, req); err != nil {
			return err
		}
		s.stamp(ctx, &tmpl)
		if err := s.repo.SaveTemplate(ctx, tx, &tmpl); err != nil {
			return err
		}
		saved = tmpl
		return nil
	})
	if err != nil {
		return domain.Template{}, err
	}

	s.audit(ctx, "invoice_template.updated", domain.MainTemplateID, nil)
	return saved, nil
}

func (s *Service) ResetTemplate(ctx context.Context) (domain.Template, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return domain.Template{}, err
	}

	var saved domain.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindTemplate(ctx, tx, domain.MainTemplateID)
		if err != nil {
			return err
		}
		tmpl := domain.DefaultTemplate()
		if current != nil {
			tmpl.CreatedAt = current.CreatedAt
		}
		s.stamp(ctx, &tmpl)
		if err := s.repo.SaveTemplate(ctx, tx, &tmpl); err != nil {
			return err
		}
		saved = tmpl
		return nil
	})
	if err != nil {
		return domain.Template{}, err
	}

	s.audit(ctx, "invoice_template.reset", domain.MainTemplateID, nil)
	return saved, nil
}

func (s *Service) stamp(ctx context.Context, tmpl *domain.Template) {
	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	tmpl.ID = domain.MainTemplateID
	tmpl.UpdatedBy = act.ID()
	tmpl.UpdatedAt = now
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
}

func apply(tmpl *domain.Template, req domain.UpdateRequest) error {
	flags := []struct {
		value  *bool
		target *bool
	}{
		{req.ShowCustomerName, &tmpl.ShowCustomerName},
		{req.ShowCustomerPhone, &tmpl.ShowCustomerPhone},
		{req.ShowCustomerIdentification, &tmpl.ShowCustomerIdentification},
		{req.ShowVillaCode, &tmpl.ShowVillaCode},
		{req.ShowVillaDescription, &tmpl.ShowVillaDescription},
		{req.ShowRentalType, &tmpl.ShowRentalType},
		{req.ShowReservationDate, &tmpl.ShowReservationDate},
		{req.ShowCheckInTime, &tmpl.ShowCheckInTime},
		{req.ShowCheckOutTime, &tmpl.ShowCheckOutTime},
		{req.ShowGuests, &tmpl.ShowGuests},
		{req.ShowExtraServices, &tmpl.ShowExtraServices},
		{req.ShowPaymentMethod, &tmpl.ShowPaymentMethod},
		{req.ShowDeposit, &tmpl.ShowDeposit},
		{req.ShowLogo, &tmpl.ShowLogo},
	}
	for _, flag := range flags {
		if flag.value != nil {
			*flag.target = *flag.value
		}
	}

	if req.Policies != nil {
		policies := make(datatypes.JSONSlice[string], 0, len(*req.Policies))
		for _, policy := range *req.Policies {
			if policy = strings.TrimSpace(policy); policy != "" {
				policies = append(policies, policy)
			}
		}
		tmpl.Policies = policies
	}
	if req.CustomFields != nil {
		fields := make(map[string]string, len(*req.CustomFields))
		for name, value := range *req.CustomFields {
			name = strings.TrimSpace(name)
			if name == "" {
				return domain.ErrInvalidField
			}
			fields[name] = strings.TrimSpace(value)
		}
		tmpl.CustomFields = datatypes.NewJSONType(fields)
	}
	if req.FooterNote != nil {
		tmpl.FooterNote = strings.TrimSpace(*req.FooterNote)
	}
	if req.PrimaryColor != nil {
		color, err := parseColor(*req.PrimaryColor)
		if err != nil {
			return err
		}
		tmpl.PrimaryColor = color
	}
	if req.SecondaryColor != nil {
		color, err := parseColor(*req.SecondaryColor)
		if err != nil {
			return err
		}
		tmpl.SecondaryColor = color
	}
	return nil
}

func parseColor(raw string) (string, error) {
	color := strings.ToLower(strings.TrimSpace(raw))
	if !hexColor.MatchString(color) {
		return "", domain.ErrInvalidColor
	}
	return color, nil
}

func (s *Service) Logo(ctx context.Context) (*domain.Logo, error) {
	return s.repo.FindLogo(ctx, s.db, domain.MainLogoID)
}

func (s *Service) LogoView(ctx context.Context) (domain.LogoView, error) {
	logo, err := s.Logo(ctx)
	if err != nil || logo == nil {
		return domain.LogoView{}, err
	}
	data := base64.StdEncoding.EncodeToString(logo.Data)
	return domain.LogoView{
		LogoData: &data,
		Filename: &logo.Filename,
		MimeType: &logo.MimeType,
	}, nil
}

func (s *Service) UploadLogo(ctx context.Context, req domain.UploadLogoRequest) (domain.Logo, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return domain.Logo{}, err
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return domain.Logo{}, domain.ErrInvalidFilename
	}
	data, err := decodeImage(req.LogoData)
	if err != nil {
		return domain.Logo{}, err
	}
	if len(data) > s.logoMaxBytes {
		return domain.Logo{}, domain.ErrLogoTooLarge
	}
	mimeType, err := imageType(req.MimeType, data)
	if err != nil {
		return domain.Logo{}, err
	}

	act, _ := actor.FromContext(ctx)
	logo := domain.Logo{
		ID:         domain.MainLogoID,
		Filename:   filename,
		MimeType:   mimeType,
		Data:       data,
		UploadedBy: act.ID(),
		UploadedAt: s.clock.Now(),
	}
	if err := s.repo.SaveLogo(ctx, s.db, &logo); err != nil {
		return domain.Logo{}, err
	}

	s.log.Info("invoice logo uploaded", zap.String("filename", filename), zap.Int("bytes", len(data)))
	s.audit(ctx, "invoice_logo.uploaded", domain.MainLogoID, map[string]any{"filename": filename, "bytes": len(data)})
	return logo, nil
}

func (s *Service) DeleteLogo(ctx context.Context) (bool, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return false, err
	}
	rows, err := s.repo.DeleteLogo(ctx, s.db, domain.MainLogoID)
	if err != nil {
		return false, err
	}
	if rows > 0 {
		s.audit(ctx, "invoice_logo.deleted", domain.MainLogoID, nil)
	}
	return rows > 0, nil
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if comma := strings.IndexByte(raw, ','); comma >= 0 {
			raw = raw[comma+1:]
		}
	}
	if raw == "" {
		return nil, domain.ErrInvalidLogo
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, domain.ErrInvalidLogo
	}
	return data, nil
}

// imageType trusts the bytes over the declared type; a declared type must
// agree with them.
func imageType(declared string, data []byte) (string, error) {
	sniffed := http.DetectContentType(data)
	if sniffed != "image/png" && sniffed != "image/jpeg" {
		return "", domain.ErrLogoType
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != "" && declared != sniffed {
		return "", domain.ErrLogoType
	}
	return sniffed, nil
}

func (s *Service) audit(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "settings", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
