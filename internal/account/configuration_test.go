package account_test

import (
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"

	"github.com/temirov/surch/internal/account"
	"github.com/temirov/surch/internal/reposearch"
)

func TestDefaultConfigurationValuesDecodeIntoCommandConfiguration(testInstance *testing.T) {
	defaultValues := account.DefaultConfigurationValues("")

	var configuration account.CommandConfiguration
	require.NoError(testInstance, mapstructure.Decode(defaultValues, &configuration))

	require.Equal(testInstance, account.DefaultCommandConfiguration(), configuration)
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration account.CommandConfiguration
		assertion     func(testInstance *testing.T, sanitized account.CommandConfiguration)
	}{
		{
			name: "trims_whitespace",
			configuration: account.CommandConfiguration{
				SearchTerms:         []string{" TODO ", ""},
				IncludeRepositories: []string{" alpha "},
				CloneDirectory:      " /tmp/clones ",
				Username:            " octocat ",
				Jobs:                2,
			},
			assertion: func(testInstance *testing.T, sanitized account.CommandConfiguration) {
				require.Equal(testInstance, []string{"TODO"}, sanitized.SearchTerms)
				require.Equal(testInstance, []string{"alpha"}, sanitized.IncludeRepositories)
				require.Equal(testInstance, "/tmp/clones", sanitized.CloneDirectory)
				require.Equal(testInstance, "octocat", sanitized.Username)
				require.Equal(testInstance, 2, sanitized.Jobs)
			},
		},
		{
			name:          "restores_directory_defaults",
			configuration: account.CommandConfiguration{CloneDirectory: "   ", ResultsDirectory: ""},
			assertion: func(testInstance *testing.T, sanitized account.CommandConfiguration) {
				require.Equal(testInstance, reposearch.DefaultCloneDirectory(), sanitized.CloneDirectory)
				require.Equal(testInstance, reposearch.DefaultResultsDirectory(), sanitized.ResultsDirectory)
			},
		},
		{
			name:          "floors_jobs_at_one",
			configuration: account.CommandConfiguration{Jobs: -3},
			assertion: func(testInstance *testing.T, sanitized account.CommandConfiguration) {
				require.Equal(testInstance, 1, sanitized.Jobs)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testCase.assertion(testInstance, testCase.configuration.Sanitize())
		})
	}
}
