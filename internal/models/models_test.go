package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChallengePatchIsEmpty(t *testing.T) {
	title := "Sprint"
	zero := int64(0)

	tests := []struct {
		name  string
		patch ChallengePatch
		want  bool
	}{
		{"no fields", ChallengePatch{}, true},
		{"title", ChallengePatch{Title: &title}, false},
		{"zero xp is still a change", ChallengePatch{XPValue: &zero}, false},
	}

	for _, tt := range tests {
		if got := tt.patch.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChallengePatchDecoding(t *testing.T) {
	var patch ChallengePatch
	if err := json.Unmarshal([]byte(`{"xpValue":0}`), &patch); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if patch.XPValue == nil || *patch.XPValue != 0 || patch.Title != nil {
		t.Errorf("Unexpected patch: %+v", patch)
	}
}

func TestFollowStatusJSON(t *testing.T) {
	data, err := json.Marshal(FollowStatus{FollowerID: "A", FollowingID: "B", Following: true})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !strings.Contains(string(data), `"isFollowing":true`) {
		t.Errorf("Expected isFollowing in %s", data)
	}
}
