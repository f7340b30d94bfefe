package extract

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/danmuck/fsdctl/internal/config"
	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/fsd/container"
	"github.com/danmuck/fsdctl/internal/resindex"
	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

const typesSchema = `
type: dict
keyType: {type: int32}
valueType:
  type: object
  attributes:
    - {name: typeName, type: string}
    - {name: groupID, type: int32}
`

type gameFixture struct {
	cfg config.Config
}

func typesPayload() []byte {
	b := binary.LittleEndian.AppendUint32(nil, 1)
	b = binary.LittleEndian.AppendUint32(b, 587)
	b = binary.LittleEndian.AppendUint32(b, uint32(len("Rifter")))
	b = append(b, "Rifter"...)
	return binary.LittleEndian.AppendUint32(b, 25)
}

func writeBlueprintDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE cache (key INTEGER PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cache (key, value) VALUES (681, '{"blueprintTypeID":681}')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func newGameFixture(t *testing.T) gameFixture {
	t.Helper()
	root := t.TempDir()
	game := filepath.Join(root, "stillness")
	resfiles := filepath.Join(root, "ResFiles")
	schemas := filepath.Join(root, "schemas")
	for _, dir := range []string{game, filepath.Join(resfiles, "ab"), filepath.Join(resfiles, "cd"), schemas} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	pickled := []byte{0x80, 0x04, 0x95, 'x', '.'}
	require.NoError(t, os.WriteFile(filepath.Join(resfiles, "ab", "ab12_types"), container.Encode(pickled, typesPayload()), 0o644))
	writeBlueprintDB(t, filepath.Join(resfiles, "cd", "cd34_bp"))
	broken := container.Encode([]byte("type: int64"), []byte{1, 2})
	require.NoError(t, os.WriteFile(filepath.Join(resfiles, "cd", "cd56_broken"), broken, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(schemas, "types.schema.yaml"), []byte(typesSchema), 0o644))

	bpInfo, err := os.Stat(filepath.Join(resfiles, "cd", "cd34_bp"))
	require.NoError(t, err)
	index := strings.Join([]string{
		fmt.Sprintf("res:/staticdata/types.fsdbinary,ab/ab12_types,ab12,0,%d", len(container.Encode(pickled, typesPayload()))),
		fmt.Sprintf("res:/staticdata/blueprints.static,cd/cd34_bp,cd34,0,%d", bpInfo.Size()),
		fmt.Sprintf("res:/staticdata/broken.fsdbinary,cd/cd56_broken,cd56,0,%d", len(broken)),
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(game, "resfileindex.txt"), []byte(index), 0o644))

	cfg := config.Default()
	cfg.GamePath = game
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.SchemaDir = schemas
	cfg.Workers = 2
	cfg.Indent = 0
	cfg.Resources = []config.Resource{
		{Name: "types", Resource: "res:/staticdata/types.fsdbinary"},
		{Name: "blueprints", Resource: "res:/staticdata/blueprints.static"},
		{Name: "broken", Resource: "res:/staticdata/broken.fsdbinary"},
		{Name: "missing", Resource: "res:/staticdata/missing.fsdbinary"},
	}
	cfg = config.Resolve(cfg)
	require.NoError(t, config.Validate(cfg))
	return gameFixture{cfg: cfg}
}

func TestRunRoutesAndIsolatesFailures(t *testing.T) {
	testlog.Start(t)
	fx := newGameFixture(t)
	runner, err := NewRunner(fx.cfg)
	require.NoError(t, err)
	jobs, err := JobsFromConfig(fx.cfg)
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	results, err := runner.Run(context.Background(), jobs)
	require.Error(t, err)
	require.Len(t, results, 4)

	require.NoError(t, results[0].Err)
	require.Equal(t, DecoderFSD, results[0].Decoder)
	out, err := os.ReadFile(results[0].OutputPath)
	require.NoError(t, err)
	require.Equal(t, `{"587":{"typeName":"Rifter","groupID":25}}`+"\n", string(out))

	require.NoError(t, results[1].Err)
	require.Equal(t, DecoderSQLite, results[1].Decoder)
	bp, err := os.ReadFile(results[1].OutputPath)
	require.NoError(t, err)
	require.Contains(t, string(bp), `"cache":[{"key":681,`)

	require.ErrorIs(t, results[2].Err, fsd.ErrCorruptData)
	require.ErrorIs(t, results[3].Err, resindex.ErrNotIndexed)
	require.ErrorIs(t, err, fsd.ErrCorruptData)

	_, statErr := os.Stat(filepath.Join(fx.cfg.OutputDir, "types.fsdbinary"))
	require.True(t, errors.Is(statErr, os.ErrNotExist), "intermediate copy kept without keep_intermediate")
}

func TestKeepIntermediateAndYAML(t *testing.T) {
	testlog.Start(t)
	fx := newGameFixture(t)
	fx.cfg.KeepIntermediate = true
	fx.cfg.Resources[0].Format = "yaml"
	runner, err := NewRunner(fx.cfg)
	require.NoError(t, err)
	jobs, err := JobsFromConfig(fx.cfg, "types")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, fsd.FormatYAML, jobs[0].Format)

	results, err := runner.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(fx.cfg.OutputDir, "types.yaml"), results[0].OutputPath)
	out, err := os.ReadFile(results[0].OutputPath)
	require.NoError(t, err)
	require.Contains(t, string(out), "typeName: Rifter")

	raw, err := os.ReadFile(filepath.Join(fx.cfg.OutputDir, "types.fsdbinary"))
	require.NoError(t, err)
	require.Equal(t, results[0].BytesIn, len(raw))
}

func TestJobsFromConfigUnknownName(t *testing.T) {
	testlog.Start(t)
	_, err := JobsFromConfig(config.Default(), "nope")
	require.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	testlog.Start(t)
	fx := newGameFixture(t)
	runner, err := NewRunner(fx.cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := runner.RunJob(ctx, Job{Name: "types", Resource: "res:/staticdata/types.fsdbinary", Format: fsd.FormatJSON})
	require.ErrorIs(t, res.Err, context.Canceled)
}
