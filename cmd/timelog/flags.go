package main

// Flag structs to decouple cobra from logic for testing.

type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

type StartFlags struct {
	Project string
}

type ReportFlags struct {
	Project string
}

type AmendFlags struct {
	NewTask        string
	NewTaskSet     bool
	NewDurationMin int64
	NewDurationSet bool
	NewProject     string
	NewProjectSet  bool
	DryRun         bool
}

type UploadFlags struct {
	Plugin      string
	DryRun      bool
	ListPlugins bool
}
