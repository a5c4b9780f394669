// Package mcpconfig edits the MCP server registry of a desktop client: a JSON
// object whose "mcpServers" member maps server names to launch entries.
package mcpconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

const serversKey = "mcpServers"

// ErrInvalidConfig is returned by mutating operations when the existing file
// cannot be parsed. Nothing is backed up or written in that case.
var ErrInvalidConfig = errors.New("invalid MCP config")

// Entry launches one MCP server.
type Entry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

type Status string

const (
	StatusMissing Status = "missing"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
)

type Validation struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type Presence string

const (
	Exists Presence = "exists"
	Absent Presence = "absent"
)

// UpsertResult reports what Upsert did. Backup is empty when the file did
// not exist beforehand.
type UpsertResult struct {
	Created bool   `json:"created"`
	Backup  string `json:"backup,omitempty"`
}

type RemoveResult struct {
	Removed bool   `json:"removed"`
	Backup  string `json:"backup,omitempty"`
}

// Editor reads and rewrites the registry at Path.
type Editor struct {
	Path string
	// Now stamps backup names; it defaults to time.Now.
	Now func() time.Time
}

func New(path string) *Editor {
	return &Editor{Path: path, Now: time.Now}
}

// document keeps every value as raw JSON so entries and keys the editor does
// not touch are written back unchanged.
type document struct {
	raw     []byte
	exists  bool
	top     map[string]json.RawMessage
	servers map[string]json.RawMessage
}

type invalidError struct {
	reason string
}

func (e *invalidError) Error() string { return ErrInvalidConfig.Error() + ": " + e.reason }
func (e *invalidError) Unwrap() error { return ErrInvalidConfig }

func (e *Editor) load() (*document, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{
				top:     map[string]json.RawMessage{},
				servers: map[string]json.RawMessage{},
			}, nil
		}
		return nil, fmt.Errorf("read %s: %w", e.Path, err)
	}
	doc, reason := parse(data)
	if doc == nil {
		return nil, &invalidError{reason: reason}
	}
	return doc, nil
}

func parse(data []byte) (*document, string) {
	doc := &document{raw: data, exists: true}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "file is empty"
	}
	if err := json.Unmarshal(data, &doc.top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, "top level is not a JSON object"
		}
		return nil, err.Error()
	}
	if doc.top == nil {
		return nil, "top level is not a JSON object"
	}
	doc.servers = map[string]json.RawMessage{}
	if raw, ok := doc.top[serversKey]; ok {
		if err := json.Unmarshal(raw, &doc.servers); err != nil || doc.servers == nil {
			return nil, serversKey + " is not a JSON object"
		}
	}
	return doc, ""
}

// Validate inspects the file without modifying it. A missing file is not an
// error.
func (e *Editor) Validate() (Validation, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Validation{Status: StatusMissing}, nil
		}
		return Validation{}, fmt.Errorf("read %s: %w", e.Path, err)
	}
	if _, reason := parse(data); reason != "" {
		return Validation{Status: StatusInvalid, Reason: reason}, nil
	}
	return Validation{Status: StatusValid}, nil
}

func (e *Editor) Check(name string) (Presence, error) {
	doc, err := e.load()
	if err != nil {
		return "", err
	}
	if _, ok := doc.servers[name]; ok {
		return Exists, nil
	}
	return Absent, nil
}

// Get decodes a single entry.
func (e *Editor) Get(name string) (Entry, bool, error) {
	doc, err := e.load()
	if err != nil {
		return Entry{}, false, err
	}
	raw, ok := doc.servers[name]
	if !ok {
		return Entry{}, false, nil
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, true, fmt.Errorf("decode server %s: %w", name, err)
	}
	return entry, true, nil
}

// List returns server names in sorted order.
func (e *Editor) List() ([]string, error) {
	doc, err := e.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.servers))
	for name := range doc.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Upsert creates or replaces the entry called name.
func (e *Editor) Upsert(name string, entry Entry) (UpsertResult, error) {
	if name == "" {
		return UpsertResult{}, errors.New("server name is required")
	}
	if entry.Command == "" {
		return UpsertResult{}, fmt.Errorf("server %s: command is required", name)
	}
	if entry.Args == nil {
		entry.Args = []string{}
	}
	if entry.Env == nil {
		entry.Env = map[string]string{}
	}
	doc, err := e.load()
	if err != nil {
		return UpsertResult{}, err
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("encode server %s: %w", name, err)
	}
	_, existed := doc.servers[name]
	doc.servers[name] = encoded

	backup, err := e.commit(doc)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Created: !existed, Backup: backup}, nil
}

// Remove deletes the entry called name. A missing entry is reported, not
// treated as an error, and leaves the file untouched.
func (e *Editor) Remove(name string) (RemoveResult, error) {
	doc, err := e.load()
	if err != nil {
		return RemoveResult{}, err
	}
	if _, ok := doc.servers[name]; !ok {
		return RemoveResult{}, nil
	}
	delete(doc.servers, name)

	backup, err := e.commit(doc)
	if err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Removed: true, Backup: backup}, nil
}

// commit backs up the current file, when there is one, and atomically writes
// doc in its place.
func (e *Editor) commit(doc *document) (string, error) {
	var backup string
	if doc.exists {
		var err error
		backup, err = e.backup(doc.raw)
		if err != nil {
			return "", err
		}
	}

	servers, err := json.Marshal(doc.servers)
	if err != nil {
		return backup, fmt.Errorf("encode %s: %w", serversKey, err)
	}
	doc.top[serversKey] = servers
	data, err := json.MarshalIndent(doc.top, "", "  ")
	if err != nil {
		return backup, fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := writeAtomic(e.Path, data); err != nil {
		return backup, err
	}
	return backup, nil
}

// backup copies raw to <path>.backup.<YYYYMMDD_HHMMSS>, adding _1, _2, ...
// until the name is free. Existing backups are never overwritten.
func (e *Editor) backup(raw []byte) (string, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	base := e.Path + ".backup." + now().Format("20060102_150405")
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = base + "_" + strconv.Itoa(i)
		}
		file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("create backup: %w", err)
		}
		if _, err := file.Write(raw); err != nil {
			file.Close()
			return "", fmt.Errorf("write backup %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close backup %s: %w", name, err)
		}
		return name, nil
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
