package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	"github.com/smallbiznis/villadesk/internal/invoicetemplate/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T, logoMaxBytes int) domain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:invoicetemplate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Template{}, &domain.Logo{}))

	return New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Config: config.Config{LogoMaxBytes: logoMaxBytes},
		Repo:   repository.Provide(),
	})
}

func adminCtx() context.Context {
	return actor.WithActor(context.Background(), actor.Actor{UserID: 1, Role: actor.RoleAdmin})
}

func ptr[T any](v T) *T { return &v }

func TestTemplateDefaultsUntilSaved(t *testing.T) {
	svc := newService(t, 0)

	tmpl, err := svc.Template(context.Background())
	require.NoError(t, err)
	assert.True(t, tmpl.ShowDeposit)
	assert.Len(t, tmpl.Policies, 5)
	assert.Equal(t, "#2563eb", tmpl.PrimaryColor)
	assert.Equal(t, "¡Gracias por su preferencia!", tmpl.FooterNote)
}

func TestUpdateTemplatePatchesAndPersists(t *testing.T) {
	svc := newService(t, 0)
	ctx := adminCtx()

	saved, err := svc.UpdateTemplate(ctx, domain.UpdateRequest{
		ShowDeposit:  ptr(false),
		Policies:     ptr([]string{" Sin mascotas ", ""}),
		CustomFields: ptr(map[string]string{"RNC": "131-00000-1"}),
		PrimaryColor: ptr("#AA0000"),
	})
	require.NoError(t, err)
	assert.False(t, saved.ShowDeposit)
	assert.True(t, saved.ShowGuests)
	assert.Equal(t, "#aa0000", saved.PrimaryColor)

	_, err = svc.UpdateTemplate(ctx, domain.UpdateRequest{FooterNote: ptr("Gracias")})
	require.NoError(t, err)

	stored, err := svc.Template(context.Background())
	require.NoError(t, err)
	assert.False(t, stored.ShowDeposit)
	assert.Equal(t, []string{"Sin mascotas"}, []string(stored.Policies))
	assert.Equal(t, map[string]string{"RNC": "131-00000-1"}, stored.CustomFields.Data())
	assert.Equal(t, "Gracias", stored.FooterNote)
	assert.Equal(t, "1", stored.UpdatedBy)
}

func TestUpdateTemplateValidation(t *testing.T) {
	svc := newService(t, 0)

	_, err := svc.UpdateTemplate(adminCtx(), domain.UpdateRequest{SecondaryColor: ptr("navy")})
	assert.ErrorIs(t, err, domain.ErrInvalidColor)

	_, err = svc.UpdateTemplate(adminCtx(), domain.UpdateRequest{CustomFields: ptr(map[string]string{" ": "x"})})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	employee := actor.WithActor(context.Background(), actor.Actor{UserID: 2, Role: actor.RoleEmployee})
	_, err = svc.UpdateTemplate(employee, domain.UpdateRequest{ShowGuests: ptr(false)})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestResetTemplateRestoresDefaults(t *testing.T) {
	svc := newService(t, 0)
	ctx := adminCtx()

	_, err := svc.UpdateTemplate(ctx, domain.UpdateRequest{ShowGuests: ptr(false), FooterNote: ptr("x")})
	require.NoError(t, err)

	reset, err := svc.ResetTemplate(ctx)
	require.NoError(t, err)
	assert.True(t, reset.ShowGuests)

	stored, err := svc.Template(context.Background())
	require.NoError(t, err)
	assert.True(t, stored.ShowGuests)
	assert.Equal(t, domain.DefaultTemplate().FooterNote, stored.FooterNote)
}

func encodedPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestLogoLifecycle(t *testing.T) {
	svc := newService(t, 0)
	ctx := adminCtx()

	view, err := svc.LogoView(context.Background())
	require.NoError(t, err)
	assert.Nil(t, view.LogoData)

	data := encodedPNG(t)
	logo, err := svc.UploadLogo(ctx, domain.UploadLogoRequest{
		LogoData: "data:image/png;base64," + data,
		Filename: "logo.png",
		MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", logo.MimeType)

	view, err = svc.LogoView(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view.LogoData)
	assert.Equal(t, data, *view.LogoData)
	assert.Equal(t, "logo.png", *view.Filename)

	removed, err := svc.DeleteLogo(ctx)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.DeleteLogo(ctx)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUploadLogoRejectsBadImages(t *testing.T) {
	svc := newService(t, 16)
	ctx := adminCtx()

	_, err := svc.UploadLogo(ctx, domain.UploadLogoRequest{LogoData: "%%%", Filename: "a.png"})
	assert.ErrorIs(t, err, domain.ErrInvalidLogo)

	_, err = svc.UploadLogo(ctx, domain.UploadLogoRequest{LogoData: encodedPNG(t), Filename: "a.png"})
	assert.ErrorIs(t, err, domain.ErrLogoTooLarge)

	roomy := newService(t, 0)
	_, err = roomy.UploadLogo(ctx, domain.UploadLogoRequest{
		LogoData: base64.StdEncoding.EncodeToString([]byte("GIF89a not really")),
		Filename: "a.gif",
	})
	assert.ErrorIs(t, err, domain.ErrLogoType)

	_, err = roomy.UploadLogo(ctx, domain.UploadLogoRequest{LogoData: encodedPNG(t), Filename: "a.jpg", MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, domain.ErrLogoType)

	_, err = roomy.UploadLogo(ctx, domain.UploadLogoRequest{LogoData: encodedPNG(t)})
	assert.ErrorIs(t, err, domain.ErrInvalidFilename)
}
