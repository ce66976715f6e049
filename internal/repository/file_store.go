package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/spf13/cast"
)

// Flat-file names inside the data directory.
const (
	RatesFile  = "rates.json"
	TariffFile = "tariff.json"
)

// FileStore keeps rates and tariffs in two JSON files. Each committed change
// rewrites both files; uniqueness is enforced in code before the write.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

var _ Store = (*FileStore)(nil)

// amount decodes numbers or numeric strings; anything else becomes zero.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = amount(cast.ToFloat64(v))
	return nil
}

type fileRecord struct {
	LoadPort        string `json:"load_port"`
	DestinationPort string `json:"destination_port"`
	ContainerType   string `json:"container_type"`
	FreightUSD      amount `json:"freight_usd"`
	OTHCAUD         amount `json:"othc_aud"`
	DocAUD          amount `json:"doc_aud"`
	CMRAUD          amount `json:"cmr_aud"`
	AMSUSD          amount `json:"ams_usd"`
	LSSUSD          amount `json:"lss_usd"`
	DTHC            string `json:"dthc"`
	FreeTime        string `json:"free_time"`
}

func (r fileRecord) record() model.Record {
	return model.Record{
		LoadPort: r.LoadPort, DestinationPort: r.DestinationPort, ContainerType: r.ContainerType,
		FreightUSD: float64(r.FreightUSD), OTHCAUD: float64(r.OTHCAUD), DocAUD: float64(r.DocAUD),
		CMRAUD: float64(r.CMRAUD), AMSUSD: float64(r.AMSUSD), LSSUSD: float64(r.LSSUSD),
		DTHC: r.DTHC, FreeTime: r.FreeTime,
	}.Normalize()
}

type fileCustomer struct {
	Name  string       `json:"name"`
	Rates []fileRecord `json:"rates"`
}

func (f *FileStore) ratesPath() string  { return filepath.Join(f.dir, RatesFile) }
func (f *FileStore) tariffPath() string { return filepath.Join(f.dir, TariffFile) }

// Snapshot reads both files into a MemoryStore. Missing files are empty.
func (f *FileStore) Snapshot() (*MemoryStore, error) {
	var fcs []fileCustomer
	if err := readJSON(f.ratesPath(), &fcs); err != nil {
		return nil, err
	}
	var fts []fileRecord
	if err := readJSON(f.tariffPath(), &fts); err != nil {
		return nil, err
	}

	customers := make([]model.Customer, 0, len(fcs))
	for _, fc := range fcs {
		c := model.Customer{Name: model.NormalizeName(fc.Name)}
		for _, fr := range fc.Rates {
			c.Rates = append(c.Rates, model.Rate{Record: fr.record()})
		}
		customers = append(customers, c)
	}
	tariffs := make([]model.Tariff, 0, len(fts))
	for _, fr := range fts {
		tariffs = append(tariffs, model.Tariff{Record: fr.record()})
	}

	m := NewMemoryStore()
	m.load(customers, tariffs)
	return m, nil
}

func (f *FileStore) save(m *MemoryStore) error {
	customers := m.customers
	if customers == nil {
		customers = []model.Customer{}
	}
	for i := range customers {
		if customers[i].Rates == nil {
			customers[i].Rates = []model.Rate{}
		}
	}
	tariffs := m.tariffs
	if tariffs == nil {
		tariffs = []model.Tariff{}
	}
	if err := writeJSON(f.ratesPath(), customers); err != nil {
		return err
	}
	return writeJSON(f.tariffPath(), tariffs)
}

func (f *FileStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	m, err := f.Snapshot()
	if err != nil {
		return err
	}
	if err := m.WithinTx(ctx, fn); err != nil {
		return err
	}
	return f.save(m)
}

func (f *FileStore) Customers(ctx context.Context) ([]model.Customer, error) {
	m, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.Customers(ctx)
}

func (f *FileStore) Tariffs(ctx context.Context) ([]model.Tariff, error) {
	m, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.Tariffs(ctx)
}

func (f *FileStore) Customer(ctx context.Context, name string) (*model.Customer, error) {
	m, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.Customer(ctx, name)
}

func (f *FileStore) Find(ctx context.Context, scope model.Scope, key model.Key) (*model.Record, error) {
	m, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, scope, key)
}

func (f *FileStore) EnsureCustomer(ctx context.Context, name string) (c model.Customer, created bool, err error) {
	err = f.WithinTx(ctx, func(s Store) error {
		c, created, err = s.EnsureCustomer(ctx, name)
		return err
	})
	return c, created, err
}

func (f *FileStore) Upsert(ctx context.Context, scope model.Scope, rec model.Record) error {
	return f.WithinTx(ctx, func(s Store) error { return s.Upsert(ctx, scope, rec) })
}

func (f *FileStore) Delete(ctx context.Context, scope model.Scope, key model.Key) error {
	return f.WithinTx(ctx, func(s Store) error { return s.Delete(ctx, scope, key) })
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, append(b, '\n'))
}

// writeFileAtomic replaces path through a temp file in the same directory so a
// crash mid-write leaves either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
