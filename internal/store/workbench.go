package store

import (
	"encoding/gob"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/tabulo/tabulo/internal/auth"
	"github.com/tabulo/tabulo/pkg"
)

type WriteSettings struct {
	WritePath     string
	InMem         bool
	WriteInterval time.Duration
}

func NewWriteSettings(write_path string, in_mem bool, write_interval_ms int) *WriteSettings {
	write_interval := time.Duration(write_interval_ms) * time.Millisecond
	if !in_mem && len(write_path) == 0 {
		pkg.FatalLog("Must either provide db path or use in-memory mode")
	}
	return &WriteSettings{write_path, in_mem, write_interval}
}

type (
	DatasetMap = pkg.Map[string, *Dataset]
	UserMap    = pkg.Map[string, *auth.User]
)

// Workbench is the root state: every dataset and user, guarded by one
// RWMutex. Read actions take the read lock, mutations the write lock.
type Workbench struct {
	Locker sync.RWMutex
	// dataset id -> dataset
	Datasets      DatasetMap
	WriteSettings *WriteSettings
	LastChange    time.Time

	Users UserMap
}

type Meta struct {
	DatasetIds []string
	Users      UserMap
}

type LogOptions struct {
	Should_log      bool
	Show_debug_logs bool
}

type AuthSettings struct {
	Username string
	Password string
}

func GobRegisterTypes() {
	gob.Register(int(0))
	gob.Register(float64(0.))
	gob.Register(string(""))
	gob.Register(time.Time{})
	gob.Register(bool(false))
	gob.Register([]any{})
}

func NewWorkbench(auth_settings AuthSettings, write_settings *WriteSettings, log_options LogOptions) *Workbench {
	GobRegisterTypes()
	if log_options.Should_log {
		if log_options.Show_debug_logs {
			pkg.SetLogLevel(pkg.LogLevelDebug)
		} else {
			pkg.SetLogLevel(pkg.LogLevelErrOnly)
		}
	} else {
		pkg.SetLogLevel(pkg.LogLevelNone)
	}

	w := &Workbench{Locker: sync.RWMutex{}, WriteSettings: write_settings}
	w.Datasets, w.Users = ReadFromFile(w)
	if auth_settings.Username != "" {
		user := auth.NewUser(auth_settings.Username, auth_settings.Password, auth.UserRoleAdmin)
		user.IsRoot = true
		w.Users.Set(user.Id, user)
	}
	w.LastChange = time.Now()
	return w
}

func (w *Workbench) GetLocker() *sync.RWMutex { return &w.Locker }

func (w *Workbench) Touch() { w.LastChange = time.Now() }

// LastWrite reads the change stamp under the read lock. Touch runs under the
// write lock, so readers outside the action path go through here.
func (w *Workbench) LastWrite() time.Time {
	w.Locker.RLock()
	defer w.Locker.RUnlock()
	return w.LastChange
}

func ReadFromFile(w *Workbench) (datasets DatasetMap, users UserMap) {
	datasets = DatasetMap{}
	users = UserMap{}
	if w.WriteSettings.WritePath == "" {
		return
	}

	f, open_err := os.Open(path.Join(w.WriteSettings.WritePath, "meta.tabulo"))
	if open_err != nil {
		if !os.IsNotExist(open_err) {
			pkg.ErrorLog("failed to open workbench file;", open_err)
		}
		return
	}
	defer f.Close()

	meta := &Meta{[]string{}, UserMap{}}
	err := json.NewDecoder(f).Decode(meta)
	if err != nil {
		if err == io.EOF {
			pkg.WarnLog("read empty workbench file")
			return
		}
		pkg.FatalLog(err)
	}

	users = meta.Users
	for _, id := range meta.DatasetIds {
		d, err := NewDatasetFromPath(w.WriteSettings.WritePath, id)
		if err != nil {
			pkg.FatalLog(err)
		}
		datasets.Set(id, d)
	}

	pkg.InfoLog("loaded workbench from file", w.WriteSettings.WritePath)
	return
}

func (w *Workbench) WriteToFile() {
	if w.WriteSettings.InMem {
		return
	}

	pkg.DebugLog("writing workbench to disk", w.WriteSettings.WritePath)

	w.Locker.RLock()
	defer w.Locker.RUnlock()

	meta_data, err := json.Marshal(Meta{w.Datasets.Keys(), w.Users})
	if err != nil {
		pkg.FatalLog(err)
	}

	if _, err := os.Stat(w.WriteSettings.WritePath); os.IsNotExist(err) {
		os.Mkdir(w.WriteSettings.WritePath, 0755)
	}

	if err := os.WriteFile(path.Join(w.WriteSettings.WritePath, "meta.tabulo"), meta_data, 0644); err != nil {
		pkg.FatalLog(err)
	}

	for _, d := range w.Datasets {
		if err := d.WriteToFile(w.WriteSettings.WritePath); err != nil {
			pkg.FatalLog(err)
		}
	}
}

// CreateDataset rejects duplicate names so the UI's dataset picker stays
// unambiguous.
func (w *Workbench) CreateDataset(name string) (*Dataset, error) {
	if name == "" {
		return nil, NewError(http.StatusBadRequest, "dataset requires a name")
	}
	for _, d := range w.Datasets {
		if d.Name == name {
			return nil, NewError(http.StatusConflict, "dataset "+name+" already exists")
		}
	}
	d := NewDataset(name)
	w.Datasets.Set(d.Id, d)
	return d, nil
}

// GetDataset resolves by id, then by name.
func (w *Workbench) GetDataset(id string) (*Dataset, error) {
	if w.Datasets.Has(id) {
		return w.Datasets.Get(id), nil
	}
	for _, d := range w.Datasets {
		if d.Name == id {
			return d, nil
		}
	}
	return nil, NewNotFoundError("dataset", id)
}

func (w *Workbench) DropDataset(id string) error {
	d, err := w.GetDataset(id)
	if err != nil {
		return err
	}
	w.Datasets.Delete(d.Id)
	return nil
}

// ListDatasets returns stats for every dataset, sorted by name.
func (w *Workbench) ListDatasets() []DatasetStats {
	list := make([]DatasetStats, 0, len(w.Datasets))
	for _, d := range w.Datasets {
		list = append(list, d.Stats())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ResolveDataset adapts GetDataset to the signature join and field lookups
// expect.
func (w *Workbench) ResolveDataset(id string) *Dataset {
	d, err := w.GetDataset(id)
	if err != nil {
		return nil
	}
	return d
}
