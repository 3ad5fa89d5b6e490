// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mountpath

import "testing"

func TestIsMountedSubtree(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/storage/emulated/0/Android", true},
		{"/storage/emulated/0/Android/", true},
		{"/storage/emulated/0/android", true},
		{"/STORAGE/Emulated/0/ANDROID", true},
		{"/storage/emulated/10/Android/data", true},
		{"/storage/emulated/0/Android/obb", true},
		{"/storage/emulated/0/Android/data/com.example/files/a.jpg", true},
		{"/storage/emulated/0/Android/obb/com.example/main.obb", true},
		{"/storage/emulated/0/Android/media", true},
		{"/storage/emulated/0/AndroidX", false},
		{"/storage/emulated/0/DCIM/Android", false},
		{"/storage/emulated/0", false},
		{"/storage/emulated/0/", false},
		{"/storage/emulated/", false},
		{"/storage/emulated/abc/Android", false},
		{"/storage/emulated//Android", false},
		{"/storage/1234-ABCD/Android", false},
		{"/data/media/0/Android", false},
		{"", false},
	}
	for _, test := range tests {
		if got := IsMountedSubtree(test.path); got != test.want {
			t.Errorf("IsMountedSubtree(%q) = %v, want %v", test.path, got, test.want)
		}
	}
}

func TestContainsMount(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/storage/emulated/0/Android", true},
		{"/storage/emulated/0/Android/data", true},
		{"/storage/emulated/0/ANDROID/OBB", true},
		{"/storage/emulated/0/Android/data/com.example", false},
		{"/storage/emulated/0/Android/media", false},
		{"/storage/emulated/0", false},
		{"/storage/emulated/x/Android", false},
	}
	for _, test := range tests {
		if got := ContainsMount(test.path); got != test.want {
			t.Errorf("ContainsMount(%q) = %v, want %v", test.path, got, test.want)
		}
	}
}

func TestUserIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   int
		wantOK bool
	}{
		{"/storage/emulated/0/DCIM", 0, true},
		{"/storage/emulated/10", 10, true},
		{"/storage/emulated/10/", 10, true},
		{"/storage/emulated/abc/DCIM", 0, false},
		{"/storage/ABCD-1234/DCIM", 0, false},
	}
	for _, test := range tests {
		got, ok := UserIDFromPath(test.path)
		if got != test.want || ok != test.wantOK {
			t.Errorf("UserIDFromPath(%q) = (%d, %v), want (%d, %v)", test.path, got, ok, test.want, test.wantOK)
		}
	}
}

func TestVolumeNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/storage/emulated/0/DCIM/a.jpg", VolumeExternalPrimary},
		{"/storage/Emulated/0", VolumeExternalPrimary},
		{"/storage/emulated", VolumeExternalPrimary},
		{"/storage/ABCD-1234/Music/song.mp3", "abcd-1234"},
		{"/STORAGE/abcd-1234", "abcd-1234"},
		{"/storage/", VolumeInternal},
		{"/storage//x", VolumeInternal},
		{"/data/media/0", VolumeInternal},
		{"relative/storage/emulated", VolumeInternal},
		{"", VolumeInternal},
	}
	for _, test := range tests {
		if got := VolumeNameFromPath(test.path); got != test.want {
			t.Errorf("VolumeNameFromPath(%q) = %q, want %q", test.path, got, test.want)
		}
	}
}
