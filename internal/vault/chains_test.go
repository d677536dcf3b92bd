package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

func TestChainLifecycle(t *testing.T) {
	v, _ := newTestVault(t)

	c, err := v.CreateChain("daily brief", map[string]string{"tone": "dry"}, []models.StepSpec{
		{Key: "summary", Template: "Summarize in a {{tone}} tone"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.CurrentVersion)

	c, err = v.AddChainStep(c.ID, models.StepSpec{Key: "subject", Template: "Subject for: {{summary}}"})
	require.NoError(t, err)
	assert.Len(t, c.Steps, 2)
	assert.Equal(t, 2, c.CurrentVersion)
	assert.Len(t, c.Versions, 2)

	c, err = v.RemoveChainStep(c.ID, "subject")
	require.NoError(t, err)
	assert.Len(t, c.Steps, 1)
	assert.Equal(t, 3, c.CurrentVersion)

	_, err = v.RemoveChainStep(c.ID, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	byTitle, err := v.FindChain("Daily Brief")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byTitle.ID)

	require.NoError(t, v.DeleteChain(c.ID))
	_, err = v.GetChain(c.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestChainsSurviveReopen(t *testing.T) {
	v, creds := newTestVault(t)
	c, err := v.CreateChain("pipeline", nil, []models.StepSpec{
		{Key: "a", Template: "step a"},
		{Key: "b", PromptID: "some-id", Group: "g1", If: &models.Condition{Variable: "a"}},
	})
	require.NoError(t, err)

	reopened, err := Open(v.Path(), creds)
	require.NoError(t, err)
	got, err := reopened.GetChain(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "g1", got.Steps[1].Group)
	require.NotNil(t, got.Steps[1].If)
	assert.Equal(t, "a", got.Steps[1].If.Variable)
}

func TestChainMutationsRejectBrokenSteps(t *testing.T) {
	v, _ := newTestVault(t)

	// An empty step list is fine: chains are assembled stepwise.
	c, err := v.CreateChain("wip", nil, nil)
	require.NoError(t, err)

	_, err = v.CreateChain("bad", nil, []models.StepSpec{{Key: "a"}})
	assert.ErrorIs(t, err, errs.ErrInvalidPlan)

	// A step without a source never lands in the stored chain.
	_, err = v.AddChainStep(c.ID, models.StepSpec{Key: "a"})
	assert.ErrorIs(t, err, errs.ErrInvalidPlan)

	_, err = v.AddChainStep(c.ID, models.StepSpec{Key: "a", Template: "t"})
	require.NoError(t, err)
	_, err = v.AddChainStep(c.ID, models.StepSpec{Key: "a", Template: "again"})
	assert.ErrorIs(t, err, errs.ErrInvalidPlan)

	_, err = v.AddChainStep(c.ID, models.StepSpec{
		Key:      "b",
		Template: "t",
		OnError:  &models.FallbackSpec{PromptID: "p", Template: "t"},
	})
	assert.ErrorIs(t, err, errs.ErrInvalidPlan)

	got, err := v.GetChain(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "a", got.Steps[0].Key)
}
