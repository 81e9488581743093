package config

// GetDefaultPromptTemplate returns the template used to show a flashcard in the terminal.
// Fields come from the flashcard record plus Number and SetLength.
func GetDefaultPromptTemplate() string {
	return `[{{.Number}}/{{.SetLength}}] flashcard #{{.ID}}{{if .Direction}} ({{.Direction}}){{end}}
{{range $i, $o := .Options}}  {{$i}}) option #{{$o.ID}}
{{end}}`
}

// GetExampleConfig returns a commented config file for `drillforge run --init`
func GetExampleConfig() string {
	return `[server]
base_url = "http://localhost:8000"
timeout_seconds = 30
rate_limit_per_minute = 120
load_remote_config = true

[practice]
profile = "common"
language = "en"
categories = []
contexts = []
types = []

[practice.profiles.common]
set_length = 10
fc_queue_size_max = 3
fc_queue_size_min = 1
save_answer_immediately = false
cache_context = true

[output]
dir = "output"
write_answers = true
enable_journal = true
export_xlsx = false

[metrics]
enabled = false
addr = "localhost:2112"

[drill]
mode = "auto"
accuracy = 0.7
skip_rate = 0.1
`
}
