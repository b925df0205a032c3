package service

import (
	"context"
	"testing"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/stretchr/testify/require"
)

func TestListGroupedReturnsSeededCatalogue(t *testing.T) {
	ctx := context.Background()
	svc := &OperatingHourService{Store: newTestStore(t)}

	grouped, err := svc.ListGrouped(ctx)
	require.NoError(t, err)
	require.Len(t, grouped[domain.GroupHeader], 2)
	require.Len(t, grouped[domain.GroupFooter], 7)

	for i, h := range grouped[domain.GroupHeader] {
		require.Equal(t, i+1, h.Slot)
		require.True(t, h.Visible)
	}
}

func TestUpdateChangesLabelAndVisibilityOnly(t *testing.T) {
	ctx := context.Background()
	svc := &OperatingHourService{Store: newTestStore(t)}

	grouped, err := svc.ListGrouped(ctx)
	require.NoError(t, err)
	target := grouped[domain.GroupHeader][0]

	label := "Segunda - Sexta: 14:00 às 22:00"
	hidden := false
	got, err := svc.Update(ctx, target.ID, UpdateOperatingHourParams{Label: &label, Visible: &hidden})
	require.NoError(t, err)
	require.Equal(t, label, got.Label)
	require.False(t, got.Visible)
	require.Equal(t, target.Group, got.Group)
	require.Equal(t, target.Slot, got.Slot)

	empty := ""
	_, err = svc.Update(ctx, target.ID, UpdateOperatingHourParams{Label: &empty})
	require.ErrorIs(t, err, domain.ErrInvalidLabel)

	_, err = svc.Update(ctx, "missing-id", UpdateOperatingHourParams{Label: &label})
	require.ErrorIs(t, err, ErrOperatingHourNotFound)
}

func TestHiddenSlotsDropFromPublicRead(t *testing.T) {
	ctx := context.Background()
	svc := &OperatingHourService{Store: newTestStore(t)}

	grouped, err := svc.ListGrouped(ctx)
	require.NoError(t, err)
	target := grouped[domain.GroupFooter][0]

	_, err = svc.ToggleVisibility(ctx, target.ID)
	require.NoError(t, err)

	visible, err := svc.ListVisibleGrouped(ctx)
	require.NoError(t, err)
	require.Len(t, visible[domain.GroupFooter], 6)
	for _, h := range visible[domain.GroupFooter] {
		require.NotEqual(t, target.ID, h.ID)
	}

	// Toggle back restores it.
	_, err = svc.ToggleVisibility(ctx, target.ID)
	require.NoError(t, err)
	visible, err = svc.ListVisibleGrouped(ctx)
	require.NoError(t, err)
	require.Len(t, visible[domain.GroupFooter], 7)
}

func TestListByGroupValidatesGroup(t *testing.T) {
	ctx := context.Background()
	svc := &OperatingHourService{Store: newTestStore(t)}

	header, err := svc.ListByGroup(ctx, domain.GroupHeader)
	require.NoError(t, err)
	require.Len(t, header, 2)

	_, err = svc.ListByGroup(ctx, "sidebar")
	require.ErrorIs(t, err, domain.ErrInvalidGroup)
}

func TestBulkUpdateCollectsItemErrors(t *testing.T) {
	ctx := context.Background()
	svc := &OperatingHourService{Store: newTestStore(t)}

	grouped, err := svc.ListGrouped(ctx)
	require.NoError(t, err)
	first := grouped[domain.GroupHeader][0]
	second := grouped[domain.GroupHeader][1]

	label := "Horário especial de feriado"
	hidden := false
	result, err := svc.BulkUpdate(ctx, []BulkOperatingHourItem{
		{ID: first.ID, Label: &label},
		{ID: "missing-id", Visible: &hidden},
		{ID: second.ID, Visible: &hidden},
	})
	require.NoError(t, err)
	require.Len(t, result.Updated, 2)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 1, result.Errors[0].Index)
	require.ErrorIs(t, result.Errors[0].Err, ErrOperatingHourNotFound)

	got, err := svc.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, label, got.Label)
}
