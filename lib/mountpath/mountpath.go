// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mountpath

import (
	"strconv"
	"strings"
)

const (
	// StorageRoot is the prefix every shared-storage volume lives under.
	StorageRoot = "/storage/"

	// EmulatedRoot is the prefix of the per-user emulated volumes:
	// /storage/emulated/<user>/...
	EmulatedRoot = "/storage/emulated/"

	// VolumeExternalPrimary names the emulated primary volume.
	VolumeExternalPrimary = "external_primary"

	// VolumeInternal names paths outside shared storage.
	VolumeInternal = "internal"
)

// mountedSuffixes are the per-user subtrees, relative to the user root,
// that are mounted separately from the indexed tree.
var mountedSuffixes = []string{"android", "android/data", "android/obb"}

// userRelative splits an emulated path into the user id and the
// remainder below the user root, without leading or trailing slashes.
// The prefix is matched case-insensitively.
func userRelative(path string) (user int, rest string, ok bool) {
	if len(path) < len(EmulatedRoot) || !strings.EqualFold(path[:len(EmulatedRoot)], EmulatedRoot) {
		return 0, "", false
	}
	tail := path[len(EmulatedRoot):]
	userPart, rest, _ := strings.Cut(tail, "/")
	if userPart == "" {
		return 0, "", false
	}
	for i := 0; i < len(userPart); i++ {
		if userPart[i] < '0' || userPart[i] > '9' {
			return 0, "", false
		}
	}
	user, err := strconv.Atoi(userPart)
	if err != nil {
		return 0, "", false
	}
	return user, strings.Trim(rest, "/"), true
}

// UserIDFromPath returns the user id of a /storage/emulated/<user>
// path.
func UserIDFromPath(path string) (int, bool) {
	user, _, ok := userRelative(path)
	return user, ok
}

// ContainsMount reports whether path is exactly one of the separately
// mounted per-user directories: Android, Android/data or Android/obb,
// compared case-insensitively. Trailing slashes are ignored.
func ContainsMount(path string) bool {
	_, rest, ok := userRelative(path)
	if !ok {
		return false
	}
	for _, suffix := range mountedSuffixes {
		if strings.EqualFold(rest, suffix) {
			return true
		}
	}
	return false
}

// IsMountedSubtree reports whether path is one of the separately
// mounted per-user directories or lies anywhere below one of them.
func IsMountedSubtree(path string) bool {
	_, rest, ok := userRelative(path)
	if !ok {
		return false
	}
	for _, suffix := range mountedSuffixes {
		if strings.EqualFold(rest, suffix) {
			return true
		}
		if len(rest) > len(suffix) && rest[len(suffix)] == '/' && strings.EqualFold(rest[:len(suffix)], suffix) {
			return true
		}
	}
	return false
}

// VolumeNameFromPath returns the volume a path belongs to: the
// emulated volume is external_primary, any other /storage/<id> volume
// is its lowercased id, and everything else is internal.
func VolumeNameFromPath(path string) string {
	if len(path) <= len(StorageRoot) || !strings.EqualFold(path[:len(StorageRoot)], StorageRoot) {
		return VolumeInternal
	}
	volume, _, _ := strings.Cut(path[len(StorageRoot):], "/")
	if volume == "" {
		return VolumeInternal
	}
	if strings.EqualFold(volume, "emulated") {
		return VolumeExternalPrimary
	}
	return strings.ToLower(volume)
}
