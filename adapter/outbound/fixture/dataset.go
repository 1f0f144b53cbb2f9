package fixture

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ajkula/GoLockers/domain/model"
)

// Dataset is the complete state of the fixture backend
type Dataset struct {
	Admin   model.AdminProfile
	Users   []model.User
	Lockers []model.Locker
	Logs    []model.ActivityLog
}

var validate = validator.New()

func at(value string) time.Time {
	t, err := time.ParseInLocation(model.TimestampLayout, value, time.Local)
	if err != nil {
		panic(fmt.Sprintf("fixture timestamp %q: %v", value, err))
	}
	return t
}

// DefaultDataset returns the built-in development fixtures:
// five users, twelve lockers (#1 and #5 occupied, #12 in maintenance) and five log entries.
func DefaultDataset() Dataset {
	d := Dataset{
		Admin: model.AdminProfile{
			Name:      "Budi Santoso",
			Email:     "admin@smartlocker.id",
			Role:      "Super Admin",
			LastLogin: at("2023-10-27 08:30:00"),
			AvatarURL: "https://picsum.photos/200/200",
		},
		Users: []model.User{
			{ID: "u1", UID: "RFID-99283", Name: "Ahmad Dani", NIM: "2021001", Email: "ahmad@student.edu",
				Status: model.UserActive, LastActive: at("2023-10-27 10:58:00"), CurrentLockerID: "l1"},
			{ID: "u2", UID: "RFID-11234", Name: "Siti Aminah", NIM: "2021002", Email: "siti@student.edu",
				Status: model.UserActive, LastActive: at("2023-10-27 10:00:00")},
			{ID: "u3", UID: "RFID-55667", Name: "Rudi Hartono", NIM: "2021003", Email: "rudi@student.edu",
				Status: model.UserInactive, LastActive: at("2023-10-24 11:00:00")},
			{ID: "u4", UID: "RFID-88990", Name: "Dewi Sartika", NIM: "2021004", Email: "dewi@student.edu",
				Status: model.UserActive, LastActive: at("2023-10-27 06:00:00"), CurrentLockerID: "l5"},
			{ID: "u5", UID: "RFID-33441", Name: "Bambang P", NIM: "2021005", Email: "bambang@student.edu",
				Status: model.UserSuspended, LastActive: at("2023-10-20 11:00:00")},
		},
		Logs: []model.ActivityLog{
			{ID: "log1", Type: model.LogStore, Timestamp: at("2023-10-27 10:00:00"),
				UserID: "u1", UserName: "Ahmad Dani", LockerID: "l1", LockerNumber: 1},
			{ID: "log2", Type: model.LogRetrieve, Timestamp: at("2023-10-27 09:45:00"),
				UserID: "u2", UserName: "Siti Aminah", LockerID: "l2", LockerNumber: 2},
			{ID: "log3", Type: model.LogStore, Timestamp: at("2023-10-27 08:30:00"),
				UserID: "u4", UserName: "Dewi Sartika", LockerID: "l5", LockerNumber: 5},
			{ID: "log4", Type: model.LogRegister, Timestamp: at("2023-10-26 14:20:00"),
				UserID: "u5", UserName: "Bambang P", Details: "New user registration via RFID Kiosk"},
			{ID: "log5", Type: model.LogError, Timestamp: at("2023-10-26 11:00:00"),
				UserID: "u3", UserName: "Rudi Hartono", Details: "Failed authentication attempt"},
		},
	}

	for n := 1; n <= 12; n++ {
		l := model.Locker{ID: fmt.Sprintf("l%d", n), Number: n, Status: model.LockerAvailable}
		switch n {
		case 1:
			l.Status, l.CurrentUserID, l.LastUpdated = model.LockerOccupied, "u1", at("2023-10-27 10:00:00")
		case 5:
			l.Status, l.CurrentUserID, l.LastUpdated = model.LockerOccupied, "u4", at("2023-10-27 08:30:00")
		case 12:
			l.Status, l.LastUpdated = model.LockerMaintenance, at("2023-10-26 17:00:00")
		}
		d.Lockers = append(d.Lockers, l)
	}

	return d
}

// Clone returns a deep copy
func (d Dataset) Clone() Dataset {
	return Dataset{
		Admin:   d.Admin,
		Users:   append([]model.User(nil), d.Users...),
		Lockers: append([]model.Locker(nil), d.Lockers...),
		Logs:    append([]model.ActivityLog(nil), d.Logs...),
	}
}

// Validate checks field constraints, status values, unique identities and
// the locker occupancy rule. Cross references between users and lockers are
// not enforced: dangling references are part of what the views must tolerate.
func (d Dataset) Validate() error {
	var errs []error

	userIDs := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if err := validate.Struct(u); err != nil {
			errs = append(errs, fieldErrors("user", u.ID, err)...)
		}
		if !u.Status.Valid() {
			errs = append(errs, &model.ValidationError{Entity: "user", ID: u.ID, Field: "status", Reason: fmt.Sprintf("unknown status %q", u.Status)})
		}
		if userIDs[u.ID] {
			errs = append(errs, &model.ValidationError{Entity: "user", ID: u.ID, Field: "id", Reason: "duplicate"})
		}
		userIDs[u.ID] = true
	}

	lockerIDs := make(map[string]bool, len(d.Lockers))
	numbers := make(map[int]bool, len(d.Lockers))
	for _, l := range d.Lockers {
		if err := validate.Struct(l); err != nil {
			errs = append(errs, fieldErrors("locker", l.ID, err)...)
		}
		if !l.Status.Valid() {
			errs = append(errs, &model.ValidationError{Entity: "locker", ID: l.ID, Field: "status", Reason: fmt.Sprintf("unknown status %q", l.Status)})
		}
		if err := l.CheckOccupancy(); err != nil {
			errs = append(errs, err)
		}
		if lockerIDs[l.ID] {
			errs = append(errs, &model.ValidationError{Entity: "locker", ID: l.ID, Field: "id", Reason: "duplicate"})
		}
		if numbers[l.Number] {
			errs = append(errs, &model.ValidationError{Entity: "locker", ID: l.ID, Field: "number", Reason: fmt.Sprintf("duplicate number %d", l.Number)})
		}
		lockerIDs[l.ID] = true
		numbers[l.Number] = true
	}

	for _, a := range d.Logs {
		if err := validate.Struct(a); err != nil {
			errs = append(errs, fieldErrors("activity log", a.ID, err)...)
		}
	}

	return errors.Join(errs...)
}

func fieldErrors(entity, id string, err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{&model.ValidationError{Entity: entity, ID: id, Field: "-", Reason: err.Error()}}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &model.ValidationError{
			Entity: entity,
			ID:     id,
			Field:  fe.Field(),
			Reason: "failed " + fe.Tag(),
		})
	}
	return out
}
