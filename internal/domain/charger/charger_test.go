package charger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

func TestNewCharger(t *testing.T) {
	ch, err := charger.NewCharger("CCS2", 150)
	require.NoError(t, err)

	assert.Equal(t, charger.StatusAvailable, ch.Status())
	assert.Equal(t, "CCS2", ch.ConnectorType())
	assert.Equal(t, 150.0, ch.PowerKW())
	assert.True(t, ch.IsAvailable())
	assert.Equal(t, int64(1), ch.Version())
}

func TestNewCharger_Validation(t *testing.T) {
	_, err := charger.NewCharger("", 150)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = charger.NewCharger("Type2", 0)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = charger.NewCharger("Type2", -22)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCharger_ChangeStatus(t *testing.T) {
	ch, err := charger.NewCharger("CCS2", 150)
	require.NoError(t, err)

	require.NoError(t, ch.ChangeStatus(charger.StatusBeingUsed))
	assert.False(t, ch.IsAvailable())

	require.NoError(t, ch.ChangeStatus(charger.StatusAvailable))
	assert.True(t, ch.IsAvailable())
}

func TestCharger_OutOfServiceCannotBeUsed(t *testing.T) {
	ch, err := charger.NewCharger("CHAdeMO", 50)
	require.NoError(t, err)
	require.NoError(t, ch.ChangeStatus(charger.StatusOutOfService))

	err = ch.ChangeStatus(charger.StatusBeingUsed)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, charger.StatusOutOfService, ch.Status())
}

func TestCharger_ForceStatusBypassesTransitionTable(t *testing.T) {
	ch, err := charger.NewCharger("Type2", 22)
	require.NoError(t, err)
	require.NoError(t, ch.ChangeStatus(charger.StatusOutOfService))

	ch.ForceStatus(charger.StatusBeingUsed)
	assert.Equal(t, charger.StatusBeingUsed, ch.Status())
}

func TestCharger_ChangeStatus_InvalidTarget(t *testing.T) {
	ch, err := charger.NewCharger("Type2", 22)
	require.NoError(t, err)

	err = ch.ChangeStatus(charger.ChargerStatus("broken"))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
