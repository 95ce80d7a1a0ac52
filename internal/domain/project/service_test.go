package project

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitedocs/internal/domain/checklist"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/workers"
	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/pdf"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type fixedClassifier struct {
	result documents.Classification
}

func (f fixedClassifier) Classify(context.Context, string) documents.Classification {
	return f.result
}

type countingRecorder struct {
	filed, failed, signed, drafts int
}

func (c *countingRecorder) RecordIntake(ok bool) {
	if ok {
		c.filed++
	} else {
		c.failed++
	}
}
func (c *countingRecorder) RecordSigned()       { c.signed++ }
func (c *countingRecorder) DraftsChanged(d int) { c.drafts += d }

func jpegPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 180, B: uint8(x % 255), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func signature(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for x := 0; x < 100; x++ {
		img.Set(x, 25, color.NRGBA{B: 120, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	svc      *Service
	store    *blob.Store
	recorder *countingRecorder
	updates  []documents.Collection
}

func newFixture(t *testing.T, classifier documents.Classifier, opts ...Option) *fixture {
	t.Helper()
	n := 0
	ids := func() string { n++; return fmt.Sprintf("id-%d", n) }
	clock := func() time.Time { return testNow }

	f := &fixture{store: blob.NewStore(nil), recorder: &countingRecorder{}}
	pipeline := documents.NewPipeline(
		imaging.NewNormalizer(),
		classifier,
		pdf.NewCompositor(pdf.WithClock(clock)),
		f.store,
		documents.WithClock(clock),
		documents.WithIDs(ids),
	)
	base := []Option{
		WithClock(clock),
		WithIDs(ids),
		WithRecorder(f.recorder),
		OnUpdate(func(c documents.Collection) { f.updates = append(f.updates, c) }),
	}
	f.svc = New(Info{ID: "1", Code: "PFEA-2024-001", Name: "Obra"}, pipeline, f.store, append(base, opts...)...)
	return f
}

func TestBulkContractsAreFiledAndSignable(t *testing.T) {
	f := newFixture(t, fixedClassifier{result: documents.Classification{Category: "Contratos de Trabajo", IsValid: true}})

	var progress []string
	filed, err := f.svc.UploadBulk(context.Background(), []documents.Upload{
		{Name: "c1.jpg", Data: jpegPhoto(t, 300, 420)},
		{Name: "c2.jpg", Data: jpegPhoto(t, 300, 420)},
	}, documents.Target{}, func(done, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", done, total))
	})
	require.NoError(t, err)
	require.Len(t, filed, 2)
	assert.Equal(t, []string{"1/2", "2/2"}, progress)

	contracts := f.svc.Documents(documents.Filter{Category: documents.CategoryContract})
	require.Len(t, contracts, 2)
	for _, r := range contracts {
		assert.NoError(t, documents.CanSign(r))
	}
	assert.Equal(t, 0, f.recorder.drafts)
	assert.Equal(t, 2, f.recorder.filed)
	assert.Len(t, f.updates, 2)
}

func TestSingleUploadReviewAfterClassifierFailure(t *testing.T) {
	f := newFixture(t, fixedClassifier{result: documents.FallbackClassification()})

	draft, err := f.svc.UploadSingle(context.Background(), documents.Upload{Name: "curso.jpg", Data: jpegPhoto(t, 200, 200)}, documents.Target{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.recorder.drafts)
	assert.Equal(t, 0, f.svc.Collection().Len())

	review := draft.Proposed
	review.Category = documents.CategoryTraining
	review.ExpiryDate = "2025-01-01"
	doc, err := f.svc.ConfirmDraft(draft.ID, review)
	require.NoError(t, err)

	assert.Equal(t, documents.CategoryTraining, doc.Category)
	assert.Equal(t, "2025-01-01", doc.ExpiryDate)
	assert.Equal(t, documents.FallbackSummary, doc.Summary)
	assert.Equal(t, 0, f.recorder.drafts)

	_, err = f.svc.Draft(draft.ID)
	assert.ErrorIs(t, err, documents.ErrDraftNotFound)
}

func TestRejectedReviewKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)
	draft, err := f.svc.UploadSingle(context.Background(), documents.Upload{Name: "a.jpg", Data: jpegPhoto(t, 40, 40)}, documents.Target{})
	require.NoError(t, err)

	bad := draft.Proposed
	bad.Category = "Inventada"
	_, err = f.svc.ConfirmDraft(draft.ID, bad)
	assert.ErrorIs(t, err, documents.ErrInvalidCategory)

	_, err = f.svc.Draft(draft.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, f.svc.Collection().Len())
	assert.Equal(t, 0, f.store.Len())
}

func TestCancelDraftDiscards(t *testing.T) {
	f := newFixture(t, nil)
	draft, err := f.svc.UploadSingle(context.Background(), documents.Upload{Name: "a.jpg", Data: jpegPhoto(t, 40, 40)}, documents.Target{})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelDraft(draft.ID))
	assert.ErrorIs(t, f.svc.CancelDraft(draft.ID), documents.ErrDraftNotFound)
	_, err = f.svc.ConfirmDraft(draft.ID, draft.Proposed)
	assert.ErrorIs(t, err, documents.ErrDraftNotFound)
	assert.Equal(t, 0, f.recorder.drafts)
}

func TestUploadFailureLeavesNoRecord(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.UploadSingle(context.Background(), documents.Upload{Name: "x.jpg", Data: []byte("???")}, documents.Target{})
	assert.ErrorIs(t, err, documents.ErrDecode)
	assert.Equal(t, 1, f.recorder.failed)
	assert.Empty(t, f.updates)
}

func TestSignContractKeepsOriginal(t *testing.T) {
	f := newFixture(t, nil)
	filed, err := f.svc.UploadBulk(context.Background(), []documents.Upload{{Name: "contrato.jpg", Data: jpegPhoto(t, 210, 297)}},
		documents.Target{Category: documents.CategoryContract}, nil)
	require.NoError(t, err)
	original := filed[0]

	signed, err := f.svc.SignDocument(context.Background(), original.ID, documents.SignRequest{
		Signature: signature(t),
		Position:  &pdf.Position{X: 0.9, Y: 0.95},
	})
	require.NoError(t, err)
	assert.True(t, signed.Signed)
	assert.NotEmpty(t, signed.Signature)
	assert.Equal(t, "contrato_FIRMADO.pdf", signed.Name)

	all := f.svc.Collection().All()
	require.Len(t, all, 2)
	assert.Equal(t, original, all[0])
	assert.Equal(t, signed.ID, all[1].Meta().ID)
	assert.Equal(t, 1, f.recorder.signed)

	data, err := f.svc.PDF(signed.PDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	_, err = f.svc.SignDocument(context.Background(), signed.ID, documents.SignRequest{Signature: signature(t)})
	assert.ErrorIs(t, err, documents.ErrAlreadySigned)
}

func TestSignReplaceOriginal(t *testing.T) {
	f := newFixture(t, nil)
	filed, err := f.svc.UploadBulk(context.Background(), []documents.Upload{
		{Name: "a.jpg", Data: jpegPhoto(t, 50, 70)},
		{Name: "b.jpg", Data: jpegPhoto(t, 50, 70)},
	}, documents.Target{Category: documents.CategoryContract}, nil)
	require.NoError(t, err)

	signed, err := f.svc.SignDocument(context.Background(), filed[0].ID, documents.SignRequest{Signature: signature(t), ReplaceOriginal: true})
	require.NoError(t, err)

	all := f.svc.Collection().All()
	require.Len(t, all, 2)
	assert.Equal(t, signed.ID, all[0].Meta().ID)
	assert.Equal(t, filed[1].ID, all[1].Meta().ID)
}

func TestSignRejectsNonContract(t *testing.T) {
	f := newFixture(t, nil)
	filed, err := f.svc.UploadBulk(context.Background(), []documents.Upload{{Name: "a.jpg", Data: jpegPhoto(t, 50, 70)}}, documents.Target{}, nil)
	require.NoError(t, err)

	_, err = f.svc.SignDocument(context.Background(), filed[0].ID, documents.SignRequest{Signature: signature(t)})
	assert.ErrorIs(t, err, documents.ErrNotSignable)

	_, err = f.svc.SignDocument(context.Background(), "missing", documents.SignRequest{Signature: signature(t)})
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestEditAndDelete(t *testing.T) {
	f := newFixture(t, nil)
	appt, ok := f.svc.AddAppointment(documents.AppointmentForm{Category: documents.CategoryMedical, WorkerName: "Ana", Date: "2024-06-01"})
	require.True(t, ok)

	name := "Revisión anual"
	edited, err := f.svc.EditDocument(appt.ID, documents.Edit{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, edited.Meta().Name)
	assert.Equal(t, documents.RecordTypeAppointment, edited.Type())

	_, err = f.svc.EditDocument("missing", documents.Edit{Name: &name})
	assert.ErrorIs(t, err, documents.ErrNotFound)

	require.NoError(t, f.svc.DeleteDocument(appt.ID))
	assert.ErrorIs(t, f.svc.DeleteDocument(appt.ID), documents.ErrNotFound)
	assert.Equal(t, 0, f.svc.Collection().Len())
}

func TestAddAppointmentNoOp(t *testing.T) {
	f := newFixture(t, nil)
	_, ok := f.svc.AddAppointment(documents.AppointmentForm{Category: documents.CategoryTraining, Date: "2024-06-01"})
	assert.False(t, ok)
	assert.Empty(t, f.updates)
}

func TestWorkersRemindersAndPending(t *testing.T) {
	f := newFixture(t, nil)

	ana, appts, err := f.svc.AddWorker(workers.Form{
		FirstName:          "Ana",
		LastName:           "Ruiz",
		NationalID:         "1A",
		PRLAppointment:     &workers.Appointment{Date: "2024-05-20"},
		MedicalAppointment: &workers.Appointment{Date: "2024-05-10", Time: "08:00"},
	})
	require.NoError(t, err)
	require.Len(t, appts, 2)

	_, _, err = f.svc.AddWorker(workers.Form{FirstName: "Luis", LastName: "Gil", NationalID: "2B", HasPRL20h: true})
	require.NoError(t, err)

	_, _, err = f.svc.AddWorker(workers.Form{FirstName: "Sin", LastName: "Dni"})
	assert.ErrorIs(t, err, ErrInvalidWorker)

	reminders := f.svc.Reminders()
	require.Len(t, reminders, 2)
	assert.Equal(t, "med-"+ana.ID, reminders[0].ID)
	assert.Equal(t, "prl-"+ana.ID, reminders[1].ID)

	assert.Empty(t, f.svc.PendingWorkers(documents.CategoryTraining), "Ana is covered by her scheduled appointment")
	pendingMedical := f.svc.PendingWorkers(documents.CategoryMedical)
	require.Len(t, pendingMedical, 1)
	assert.Equal(t, "Gil", pendingMedical[0].LastName)

	require.NoError(t, f.svc.DeleteWorker(ana.ID))
	assert.ErrorIs(t, f.svc.DeleteWorker(ana.ID), ErrWorkerNotFound)
	assert.Len(t, f.svc.Workers(), 1)
	assert.Equal(t, 2, f.svc.Collection().Len(), "deleting a worker keeps their documents")
}

func TestChecklistToggle(t *testing.T) {
	f := newFixture(t, fixedClassifier{result: documents.Classification{
		Category: string(documents.CategorySubcontractor),
		Summary:  "Certificado de inscripción",
		IsValid:  true,
	}})
	_, err := f.svc.UploadBulk(context.Background(), []documents.Upload{
		{Name: "Seguro Responsabilidad Civil (RC) + Recibo.jpg", Data: jpegPhoto(t, 40, 40)},
	}, documents.Target{}, nil)
	require.NoError(t, err)

	res := f.svc.Checklist()
	assert.Equal(t, 1, res.SatisfiedCount)
	assert.True(t, res.Satisfied["Seguro Responsabilidad Civil (RC) + Recibo"])

	res, err = f.svc.ToggleRequirement("Evaluación de Riesgos Específica")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SatisfiedCount)

	res, err = f.svc.ToggleRequirement("Evaluación de Riesgos Específica")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SatisfiedCount)

	_, err = f.svc.ToggleRequirement("Algo más")
	assert.ErrorIs(t, err, ErrUnknownRequirement)
}

func TestCustomRequirements(t *testing.T) {
	f := newFixture(t, nil, WithRequirements([]string{"Solo uno"}))
	assert.Equal(t, 1, f.svc.Checklist().Total)
	assert.Len(t, checklist.DefaultRequirements, 6)
}

func TestWithInitialSeedsState(t *testing.T) {
	seed := documents.AppointmentDocument{Metadata: documents.Metadata{ID: "seed", Category: documents.CategoryMedical}}
	f := newFixture(t, nil, WithInitial([]documents.Record{seed}, []workers.Worker{{ID: "w", FirstName: "A", LastName: "B"}}))

	_, err := f.svc.Document("seed")
	assert.NoError(t, err)
	assert.Len(t, f.svc.Workers(), 1)
}
