package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/medmitra/internal/model"
)

func TestMemoryMedicationRepo_CreateAndList(t *testing.T) {
	repo := NewMemoryMedicationRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Medication{Name: "Metoprolol", TimeSlot: model.TimeSlotMorning}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Create(ctx, metformin()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	meds, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(meds) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(meds))
	}
	if meds[0].Name != "Metoprolol" || meds[1].Name != "Metformin" {
		t.Errorf("List() order = [%s %s], want [Metoprolol Metformin]", meds[0].Name, meds[1].Name)
	}
}

func TestMemoryMedicationRepo_Create_Duplicate(t *testing.T) {
	repo := NewMemoryMedicationRepo()
	ctx := context.Background()
	repo.Create(ctx, metformin())

	err := repo.Create(ctx, &model.Medication{Name: "METFORMIN", TimeSlot: model.TimeSlotNight})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateMedication {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateMedication)
	}
}

func TestMemoryMedicationRepo_FindAndDelete(t *testing.T) {
	repo := NewMemoryMedicationRepo()
	ctx := context.Background()
	repo.Create(ctx, metformin())

	found, _ := repo.FindByName(ctx, "metformin")
	if found == nil || found.Name != "Metformin" {
		t.Fatalf("FindByName() = %+v, want Metformin", found)
	}

	deleted, _ := repo.DeleteByName(ctx, "Metformin")
	if !deleted {
		t.Error("DeleteByName() = false, want true")
	}
	deleted, _ = repo.DeleteByName(ctx, "Metformin")
	if deleted {
		t.Error("second DeleteByName() = true, want false")
	}
	if found, _ := repo.FindByName(ctx, "Metformin"); found != nil {
		t.Errorf("FindByName() after delete = %+v, want nil", found)
	}
}

func TestMemoryNotificationRepo_ExistsSinceDayBoundary(t *testing.T) {
	repo := NewMemoryNotificationRepo()
	ctx := context.Background()

	repo.Append(ctx, &model.Notification{MedicationName: "Metformin", CreatedAt: at(19, 10)})

	if ok, _ := repo.ExistsSince(ctx, "Metformin", testDay); !ok {
		t.Error("ExistsSince(today) = false, want true")
	}
	if ok, _ := repo.ExistsSince(ctx, "Metformin", testDay.AddDate(0, 0, 1)); ok {
		t.Error("ExistsSince(tomorrow) = true, want false")
	}
	if ok, _ := repo.ExistsSince(ctx, "Aspirin", testDay); ok {
		t.Error("ExistsSince(Aspirin) = true, want false")
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 {
		t.Errorf("len(List()) = %d, want 1", len(list))
	}
}

func TestMemoryProfileRepo_DefaultsUserNameThenUpdate(t *testing.T) {
	repo := NewMemoryProfileRepo(model.UserProfile{})
	ctx := context.Background()

	p, _ := repo.Get(ctx)
	if p.UserName != model.DefaultUserName {
		t.Errorf("UserName = %q, want %q", p.UserName, model.DefaultUserName)
	}

	repo.Update(ctx, &model.UserProfile{UserName: "Mr. Sharma", CaregiverContact: "+91-9876543210"})
	p, _ = repo.Get(ctx)
	if p.UserName != "Mr. Sharma" || p.CaregiverContact != "+91-9876543210" {
		t.Errorf("profile = %+v, want updated values", p)
	}
}
