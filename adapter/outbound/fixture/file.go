package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajkula/GoLockers/domain/model"
)

// fixtureFile is the YAML layout of a dataset; timestamps use model.TimestampLayout
type fixtureFile struct {
	Admin   adminRecord    `yaml:"admin"`
	Users   []userRecord   `yaml:"users"`
	Lockers []lockerRecord `yaml:"lockers"`
	Logs    []logRecord    `yaml:"logs"`
}

type adminRecord struct {
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Role      string `yaml:"role"`
	LastLogin string `yaml:"lastLogin"`
	AvatarURL string `yaml:"avatarUrl"`
}

type userRecord struct {
	ID              string `yaml:"id"`
	UID             string `yaml:"uid"`
	Name            string `yaml:"name"`
	NIM             string `yaml:"nim"`
	Email           string `yaml:"email"`
	Status          string `yaml:"status"`
	LastActive      string `yaml:"lastActive,omitempty"`
	CurrentLockerID string `yaml:"currentLockerId,omitempty"`
}

type lockerRecord struct {
	ID            string `yaml:"id"`
	Number        int    `yaml:"number"`
	Status        string `yaml:"status"`
	CurrentUserID string `yaml:"currentUserId,omitempty"`
	LastUpdated   string `yaml:"lastUpdated,omitempty"`
}

type logRecord struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"`
	Timestamp    string `yaml:"timestamp"`
	UserID       string `yaml:"userId"`
	UserName     string `yaml:"userName"`
	LockerID     string `yaml:"lockerId,omitempty"`
	LockerNumber int    `yaml:"lockerNumber,omitempty"`
	Details      string `yaml:"details,omitempty"`
}

// LoadDataset reads and validates a YAML fixture file
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	d, err := f.toDataset()
	if err != nil {
		return Dataset{}, fmt.Errorf("invalid fixture file %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("invalid fixture file %s: %w", path, err)
	}
	return d, nil
}

// SaveDataset writes a dataset as YAML, creating parent directories
func SaveDataset(path string, d Dataset) error {
	data, err := yaml.Marshal(fromDataset(d))
	if err != nil {
		return fmt.Errorf("failed to encode fixtures: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write fixture file: %w", err)
	}
	return nil
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(model.TimestampLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.TimestampLayout)
}

func (f fixtureFile) toDataset() (Dataset, error) {
	var d Dataset
	var err error

	d.Admin = model.AdminProfile{
		Name:      f.Admin.Name,
		Email:     f.Admin.Email,
		Role:      f.Admin.Role,
		AvatarURL: f.Admin.AvatarURL,
	}
	if d.Admin.LastLogin, err = parseTime("admin.lastLogin", f.Admin.LastLogin); err != nil {
		return Dataset{}, err
	}

	for _, r := range f.Users {
		u := model.User{
			ID:              r.ID,
			UID:             r.UID,
			Name:            r.Name,
			NIM:             r.NIM,
			Email:           r.Email,
			Status:          model.UserStatus(r.Status),
			CurrentLockerID: r.CurrentLockerID,
		}
		if u.LastActive, err = parseTime("user "+r.ID+" lastActive", r.LastActive); err != nil {
			return Dataset{}, err
		}
		d.Users = append(d.Users, u)
	}

	for _, r := range f.Lockers {
		l := model.Locker{
			ID:            r.ID,
			Number:        r.Number,
			Status:        model.LockerStatus(r.Status),
			CurrentUserID: r.CurrentUserID,
		}
		if l.LastUpdated, err = parseTime("locker "+r.ID+" lastUpdated", r.LastUpdated); err != nil {
			return Dataset{}, err
		}
		d.Lockers = append(d.Lockers, l)
	}

	for _, r := range f.Logs {
		a := model.ActivityLog{
			ID:           r.ID,
			Type:         model.LogType(r.Type),
			UserID:       r.UserID,
			UserName:     r.UserName,
			LockerID:     r.LockerID,
			LockerNumber: r.LockerNumber,
			Details:      r.Details,
		}
		if a.Timestamp, err = parseTime("log "+r.ID+" timestamp", r.Timestamp); err != nil {
			return Dataset{}, err
		}
		d.Logs = append(d.Logs, a)
	}

	return d, nil
}

func fromDataset(d Dataset) fixtureFile {
	f := fixtureFile{
		Admin: adminRecord{
			Name:      d.Admin.Name,
			Email:     d.Admin.Email,
			Role:      d.Admin.Role,
			LastLogin: formatTime(d.Admin.LastLogin),
			AvatarURL: d.Admin.AvatarURL,
		},
	}
	for _, u := range d.Users {
		f.Users = append(f.Users, userRecord{
			ID:              u.ID,
			UID:             u.UID,
			Name:            u.Name,
			NIM:             u.NIM,
			Email:           u.Email,
			Status:          string(u.Status),
			LastActive:      formatTime(u.LastActive),
			CurrentLockerID: u.CurrentLockerID,
		})
	}
	for _, l := range d.Lockers {
		f.Lockers = append(f.Lockers, lockerRecord{
			ID:            l.ID,
			Number:        l.Number,
			Status:        string(l.Status),
			CurrentUserID: l.CurrentUserID,
			LastUpdated:   formatTime(l.LastUpdated),
		})
	}
	for _, a := range d.Logs {
		f.Logs = append(f.Logs, logRecord{
			ID:           a.ID,
			Type:         string(a.Type),
			Timestamp:    formatTime(a.Timestamp),
			UserID:       a.UserID,
			UserName:     a.UserName,
			LockerID:     a.LockerID,
			LockerNumber: a.LockerNumber,
			Details:      a.Details,
		})
	}
	return f
}
