package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

type fakeDeleter struct {
	ids []int64
	err error
}

func (f *fakeDeleter) Delete(ctx context.Context, id int64) (string, error) {
	f.ids = append(f.ids, id)
	return "", f.err
}

func TestRemover_Success(t *testing.T) {
	deleter := &fakeDeleter{}
	reporter := notify.NewMemory(10)
	refreshed := 0
	r := NewRemover(deleter, reporter, func() { refreshed++ }, logging.Discard())

	require.NoError(t, r.Remove(context.Background(), 9))
	assert.Equal(t, []int64{9}, deleter.ids)
	assert.Equal(t, []string{DeletedMessage}, reporter.Messages(notify.Success))
	assert.Equal(t, 1, refreshed)
}

func TestRemover_FailureDoesNotRefresh(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("Error: not found")}
	reporter := notify.NewMemory(10)
	refreshed := 0
	r := NewRemover(deleter, reporter, func() { refreshed++ }, logging.Discard())

	require.Error(t, r.Remove(context.Background(), 9))
	assert.Equal(t, []string{"Error: not found"}, reporter.Messages(notify.Error))
	assert.Equal(t, 0, refreshed)
}
