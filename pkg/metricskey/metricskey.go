package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsLLMBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_sent",
		Help:         "stats_llm_bytes_sent provides total bytes sent to LLM",
		RequiredTags: []string{"function", "model"},
	}

	StatsLLMBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_received",
		Help:         "stats_llm_bytes_received provides total bytes received from LLM",
		RequiredTags: []string{"function", "model"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"function", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"function", "model"},
	}

	StatsFuncQueriesSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_queries_succeeded",
		Help:         "stats_func_queries_succeeded provides total function queries succeeded",
		RequiredTags: []string{"function"},
	}

	StatsFuncQueriesFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_queries_failed",
		Help:         "stats_func_queries_failed provides total function queries failed",
		RequiredTags: []string{"function"},
	}

	StatsFuncCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_calls_succeeded",
		Help:         "stats_func_calls_succeeded provides total wrapped function invocations succeeded",
		RequiredTags: []string{"function"},
	}

	StatsFuncCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_calls_failed",
		Help:         "stats_func_calls_failed provides total wrapped function invocations failed",
		RequiredTags: []string{"function"},
	}

	StatsFuncCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_calls_not_found",
		Help:         "stats_func_calls_not_found provides total dispatches to unknown functions",
		RequiredTags: []string{"function"},
	}

	StatsFuncParseErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_func_parse_errors",
		Help:         "stats_func_parse_errors provides total argument parse errors on dispatch",
		RequiredTags: []string{"function"},
	}
)

// Perf
var (
	PerfFuncQuery = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_func_query",
		Help:         "perf_func_query provides duration of function query round trip",
		RequiredTags: []string{"function"},
	}

	PerfFuncCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_func_call",
		Help:         "perf_func_call provides duration of wrapped function invocation",
		RequiredTags: []string{"function"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfFuncCall,
	&PerfFuncQuery,
	&StatsFuncCallsFailed,
	&StatsFuncCallsNotFound,
	&StatsFuncCallsSucceeded,
	&StatsFuncParseErrors,
	&StatsFuncQueriesFailed,
	&StatsFuncQueriesSucceeded,
	&StatsLLMBytesReceived,
	&StatsLLMBytesSent,
	&StatsLLMInputTokens,
	&StatsLLMOutputTokens,
}
