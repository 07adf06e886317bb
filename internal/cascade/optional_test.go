package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveBrands(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.addCategory(1, 0)
	st.addCategory(2, 0)
	st.addBrand(10)
	st.addBrand(11)
	st.addProduct(100, 1, 10)
	st.addProduct(101, 1, 11)
	st.addProduct(200, 2, 11)

	err := st.WithTx(ctx, func(tx Tx) error {
		got, err := ExclusiveBrands(ctx, tx, []int{10, 11}, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{10}, got)

		got, err = ExclusiveBrands(ctx, tx, nil, 1)
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	})
	require.NoError(t, err)
}

func TestRunOptional_FailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.addCategory(1, 0)
	st.addBrand(10)

	err := st.WithTx(ctx, func(tx Tx) error {
		f := runOptional(ctx, tx, "op", Step{
			Name: "drop brand then fail",
			Kind: Optional,
			Run: func(ctx context.Context, tx Tx) error {
				if _, err := tx.DeleteBrand(ctx, 10); err != nil {
					return err
				}
				return errors.New("boom")
			},
		})
		require.NotNil(t, f)
		assert.Equal(t, "drop brand then fail", f.Step)
		assert.Equal(t, "boom", f.Reason)

		ok := runOptional(ctx, tx, "op", Step{
			Name: "noop",
			Kind: Optional,
			Run:  func(context.Context, Tx) error { return nil },
		})
		assert.Nil(t, ok)
		return nil
	})
	require.NoError(t, err)

	// The savepoint rolled the brand deletion back; the outer transaction committed.
	assert.True(t, st.has("brands", 10))
}

func TestStepKindString(t *testing.T) {
	assert.Equal(t, "mandatory", Mandatory.String())
	assert.Equal(t, "optional", Optional.String())
}

func TestStepErrorMessage(t *testing.T) {
	err := &StepError{Step: "product#1: row", Index: 3, Err: ErrRowVanished}
	assert.Contains(t, err.Error(), "step 3")
	assert.ErrorIs(t, err, ErrRowVanished)

	err = &StepError{Step: "transaction", Err: errors.New("commit failed")}
	assert.NotContains(t, err.Error(), "step 0")
}
