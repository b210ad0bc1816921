package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/labflow/model"
)

func strPtr(s string) *string { return &s }

func TestLog_Record(t *testing.T) {
	log := New()
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	item := &model.OrderItem{ID: "I-1", Value: strPtr("5.1")}

	first := log.Record(item, model.TransitionReport, "U-1", at)
	item.Value = strPtr("5.4")
	second := log.Record(item, model.TransitionUpdate, "U-1", at.Add(time.Minute))
	log.Record(&model.OrderItem{ID: "I-2"}, model.TransitionReport, "U-1", at)

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	history := log.History("I-1")
	require.Len(t, history, 2)
	for i, version := range history {
		assert.Equal(t, i+1, version.Seq)
	}
	assert.Equal(t, "5.1", *history[0].Value)
	assert.Equal(t, "5.4", *history[1].Value)
	assert.Equal(t, 2, log.Len("I-1"))
	assert.Empty(t, log.History("I-9"))
}

func TestLog_HistoryIsCopy(t *testing.T) {
	log := New()
	item := &model.OrderItem{ID: "I-1", Value: strPtr("1")}
	log.Record(item, model.TransitionReport, "U-1", time.Time{})
	*item.Value = "mutated"

	first := log.History("I-1")
	*first[0].Value = "changed"
	second := log.History("I-1")
	assert.Equal(t, "1", *second[0].Value)
	assert.Equal(t, log.History("I-1"), second)
}

func TestLog_Version(t *testing.T) {
	log := New()
	log.Record(&model.OrderItem{ID: "I-1"}, model.TransitionReport, "U-1", time.Time{})
	testCases := []struct {
		description string
		seq         int
		expectErr   bool
	}{
		{description: "first", seq: 1},
		{description: "zero", seq: 0, expectErr: true},
		{description: "beyond", seq: 2, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			version, err := log.Version("I-1", testCase.seq)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.seq, version.Seq)
		})
	}
}

func TestLog_Diff(t *testing.T) {
	log := New()
	item := &model.OrderItem{ID: "I-1", Value: strPtr("5.1"), Comment: strPtr("hemolysed")}
	log.Record(item, model.TransitionReport, "U-1", time.Time{})
	item.Value = strPtr("5.4")
	log.Record(item, model.TransitionUpdate, "U-2", time.Time{})

	diff, err := log.Diff("I-1", 1, 2)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- I-1@1")
	assert.Contains(t, diff, "+++ I-1@2")
	assert.Contains(t, diff, "-value: 5.1")
	assert.Contains(t, diff, "+value: 5.4")
	assert.Contains(t, diff, "+actor: U-2")
	assert.NotContains(t, diff, "-comment:")

	same, err := log.Diff("I-1", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, same)

	_, err = log.Diff("I-1", 1, 3)
	assert.Error(t, err)
}

func TestLog_Restore(t *testing.T) {
	log := New()
	log.Record(&model.OrderItem{ID: "I-2"}, model.TransitionReport, "U-1", time.Time{})
	log.Record(&model.OrderItem{ID: "I-1"}, model.TransitionReport, "U-1", time.Time{})
	log.Record(&model.OrderItem{ID: "I-1"}, model.TransitionApprove, "U-2", time.Time{})
	versions := log.Versions()
	require.Len(t, versions, 3)
	assert.Equal(t, "I-1", versions[0].ItemID)

	restored := New()
	require.NoError(t, restored.Restore(versions))
	assert.Equal(t, log.History("I-1"), restored.History("I-1"))

	err := restored.Restore([]*model.Version{{ItemID: "I-1", Seq: 2}})
	assert.Error(t, err)
	assert.Equal(t, 2, restored.Len("I-1"))
}
