package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
)

func TestEncodeDecode_Dates(t *testing.T) {
	in := Snapshot{
		"milho_data_desembolso": day(2026, time.January, 30),
		"milho_preco_mercado":   55.0,
		"milho_note":            "2026-13-45",
	}
	data, err := Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"milho_data_desembolso": "2026-01-30"`)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.January, 30), out["milho_data_desembolso"])
	assert.Equal(t, 55.0, out["milho_preco_mercado"])
	assert.Equal(t, "2026-13-45", out["milho_note"])
}

func TestDecode_Corrupt(t *testing.T) {
	for _, body := range []string{"{", "[1,2]", "null", "42"} {
		_, err := Decode([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "agro_state.json"))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, CornDefaults()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.August, 30), got["milho_data_pagamento"])
	assert.Equal(t, 105.0, got["milho_produtividade_sc_ha"])

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadOrEmpty_IgnoresCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agro_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got := LoadOrEmpty(context.Background(), NewFileStore(path), zap.NewNop())
	assert.Empty(t, got)
}

func TestSaveBestEffort_SwallowsErrors(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing-dir", "agro_state.json"))
	ok := SaveBestEffort(context.Background(), store, Snapshot{"soja_x": 1.0}, zap.NewNop())
	assert.False(t, ok)
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "state.db"),
	})
	require.NoError(t, err)

	store := NewGormStore(db, "")
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, Snapshot{"soja_preco_mercado": 105.0}))
	require.NoError(t, store.Save(ctx, Snapshot{"soja_preco_mercado": 110.0, "soja_data_pagamento": day(2026, time.April, 30)}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 110.0, got["soja_preco_mercado"])
	assert.Equal(t, day(2026, time.April, 30), got["soja_data_pagamento"])

	var count int64
	require.NoError(t, db.Model(&StateSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	_, err := OpenDatabase(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestS3Store_Load(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "agro" && *in.Key == "agro_state.json"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`{"milho_data_parc2":"2026-07-30","milho_preco_mercado":55}`)),
	}, nil)

	got, err := NewS3Store(api, "agro", "agro_state.json").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.July, 30), got["milho_data_parc2"])
	assert.Equal(t, 55.0, got["milho_preco_mercado"])
	api.AssertExpectations(t)
}

func TestS3Store_MissingObject(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})

	_, err := NewS3Store(api, "agro", "agro_state.json").Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestS3Store_Save(t *testing.T) {
	api := new(mockObjectAPI)
	var body string
	api.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(*s3.PutObjectInput)
			data, _ := io.ReadAll(in.Body)
			body = string(data)
		}).
		Return(&s3.PutObjectOutput{}, nil)

	err := NewS3Store(api, "agro", "agro_state.json").Save(context.Background(), Snapshot{"soja_data_pagamento": day(2026, time.April, 30)})
	require.NoError(t, err)
	assert.Contains(t, body, `"soja_data_pagamento": "2026-04-30"`)
}

func TestS3Store_SaveError(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := NewS3Store(api, "agro", "k").Save(context.Background(), Snapshot{})
	assert.ErrorContains(t, err, "access denied")
}

func TestSnapshot_MarshalJSONWritesPlainDates(t *testing.T) {
	data, err := json.Marshal(Snapshot{"milho_data_pagamento": day(2026, time.August, 30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"milho_data_pagamento":"2026-08-30"}`, string(data))
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Snapshot.FilePath = filepath.Join(t.TempDir(), "agro_state.json")

	store, closeFn, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Snapshot.Backend = "database"
	cfg.Database.Path = filepath.Join(t.TempDir(), "state.db")
	store, closeFn, err = Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Snapshot.Backend = "redis"
	_, _, err = Open(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}
