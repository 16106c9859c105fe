package githubapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/surch/internal/githubapi"
)

const (
	testAccountNameConstant                     = "acme"
	testBasicAuthUsernameConstant               = "octocat"
	testBasicAuthSecretConstant                 = "hunter2"
	testPageSizeConstant                        = 100
	testRepositoryNameTemplateConstant          = "repository-%04d"
	testCloneURLTemplateConstant                = "https://github.com/acme/repository-%04d.git"
	testOrganizationMetadataPathConstant        = "/orgs/acme"
	testOrganizationRepositoriesPathConstant    = "/orgs/acme/repos"
	testUserMetadataPathConstant                = "/users/acme"
	testUserRepositoriesPathConstant            = "/users/acme/repos"
	testPageQueryParameterConstant              = "page"
	testPerPageQueryParameterConstant           = "per_page"
	testPublicRepositoryCountFieldConstant      = "public_repos"
	testEmptyAccountCaseNameConstant            = "zero_repositories_fetches_zero_pages"
	testSinglePartialPageCaseNameConstant       = "partial_page"
	testExactMultipleCaseNameConstant           = "exact_page_size_multiple"
	testMultiplePagesCaseNameConstant           = "multiple_pages_with_partial_tail"
	testLargeExactMultipleCaseNameConstant      = "large_exact_multiple"
	testOrganizationKindCaseNameConstant        = "organization_endpoints"
	testUserKindCaseNameConstant                = "user_endpoints"
	testAccountNotFoundCaseNameConstant         = "missing_account"
	testTransportFailureCaseNameConstant        = "server_failure"
)

type directoryServerState struct {
	repositoryCount     int
	metadataRequests    int
	pageRequests        []int
	observedCredentials []string
}

func newDirectoryServer(testInstance *testing.T, state *directoryServerState, metadataPath string, repositoriesPath string) *httptest.Server {
	testInstance.Helper()

	handler := http.NewServeMux()
	handler.HandleFunc(metadataPath, func(responseWriter http.ResponseWriter, request *http.Request) {
		state.metadataRequests++
		recordAuthorization(state, request)
		payload := map[string]any{testPublicRepositoryCountFieldConstant: state.repositoryCount}
		require.NoError(testInstance, json.NewEncoder(responseWriter).Encode(payload))
	})
	handler.HandleFunc(repositoriesPath, func(responseWriter http.ResponseWriter, request *http.Request) {
		recordAuthorization(state, request)
		pageNumber, parseError := strconv.Atoi(request.URL.Query().Get(testPageQueryParameterConstant))
		require.NoError(testInstance, parseError)
		state.pageRequests = append(state.pageRequests, pageNumber)

		pageSize, parseError := strconv.Atoi(request.URL.Query().Get(testPerPageQueryParameterConstant))
		require.NoError(testInstance, parseError)
		require.Equal(testInstance, testPageSizeConstant, pageSize)

		firstIndex := (pageNumber - 1) * pageSize
		lastIndex := firstIndex + pageSize
		if lastIndex > state.repositoryCount {
			lastIndex = state.repositoryCount
		}

		pageEntries := make([]map[string]any, 0, lastIndex-firstIndex)
		for repositoryIndex := firstIndex; repositoryIndex < lastIndex; repositoryIndex++ {
			pageEntries = append(pageEntries, map[string]any{
				"name":      fmt.Sprintf(testRepositoryNameTemplateConstant, repositoryIndex),
				"clone_url": fmt.Sprintf(testCloneURLTemplateConstant, repositoryIndex),
				"private":   false,
				"fork":      false,
			})
		}
		require.NoError(testInstance, json.NewEncoder(responseWriter).Encode(pageEntries))
	})

	return httptest.NewServer(handler)
}

func recordAuthorization(state *directoryServerState, request *http.Request) {
	username, secret, hasBasicAuth := request.BasicAuth()
	if hasBasicAuth {
		state.observedCredentials = append(state.observedCredentials, username+":"+secret)
	}
}

func newDirectoryClient(testInstance *testing.T, serverURL string) *githubapi.Client {
	testInstance.Helper()
	client, creationError := githubapi.NewClient(githubapi.ClientOptions{BaseURL: serverURL + "/"}, zap.NewNop())
	require.NoError(testInstance, creationError)
	return client
}

func TestListRepositoriesPagination(testInstance *testing.T) {
	testCases := []struct {
		name              string
		repositoryCount   int
		expectedPageCount int
	}{
		{name: testEmptyAccountCaseNameConstant, repositoryCount: 0, expectedPageCount: 0},
		{name: testSinglePartialPageCaseNameConstant, repositoryCount: 3, expectedPageCount: 1},
		{name: testExactMultipleCaseNameConstant, repositoryCount: testPageSizeConstant, expectedPageCount: 1},
		{name: testMultiplePagesCaseNameConstant, repositoryCount: 2*testPageSizeConstant + 17, expectedPageCount: 3},
		{name: testLargeExactMultipleCaseNameConstant, repositoryCount: 3 * testPageSizeConstant, expectedPageCount: 3},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			state := &directoryServerState{repositoryCount: testCase.repositoryCount}
			server := newDirectoryServer(testInstance, state, testOrganizationMetadataPathConstant, testOrganizationRepositoriesPathConstant)
			defer server.Close()

			client := newDirectoryClient(testInstance, server.URL)
			target := githubapi.AccountTarget{Name: testAccountNameConstant, Kind: githubapi.AccountKindOrganization}

			descriptors, listError := client.ListRepositories(context.Background(), target)
			require.NoError(testInstance, listError)

			require.Equal(testInstance, 1, state.metadataRequests)
			require.Len(testInstance, state.pageRequests, testCase.expectedPageCount)
			for pageIndex, pageNumber := range state.pageRequests {
				require.Equal(testInstance, pageIndex+1, pageNumber)
			}

			require.Len(testInstance, descriptors, testCase.repositoryCount)
			seenNames := make(map[string]bool, len(descriptors))
			for descriptorIndex, descriptor := range descriptors {
				require.Equal(testInstance, fmt.Sprintf(testRepositoryNameTemplateConstant, descriptorIndex), descriptor.Name)
				require.Equal(testInstance, fmt.Sprintf(testCloneURLTemplateConstant, descriptorIndex), descriptor.CloneURL)
				require.False(testInstance, seenNames[descriptor.Name])
				seenNames[descriptor.Name] = true
			}
		})
	}
}

func TestListRepositoriesAccountKindEndpoints(testInstance *testing.T) {
	testCases := []struct {
		name             string
		accountKind      githubapi.AccountKind
		metadataPath     string
		repositoriesPath string
	}{
		{
			name:             testOrganizationKindCaseNameConstant,
			accountKind:      githubapi.AccountKindOrganization,
			metadataPath:     testOrganizationMetadataPathConstant,
			repositoriesPath: testOrganizationRepositoriesPathConstant,
		},
		{
			name:             testUserKindCaseNameConstant,
			accountKind:      githubapi.AccountKindUser,
			metadataPath:     testUserMetadataPathConstant,
			repositoriesPath: testUserRepositoriesPathConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			state := &directoryServerState{repositoryCount: 2}
			server := newDirectoryServer(testInstance, state, testCase.metadataPath, testCase.repositoriesPath)
			defer server.Close()

			client := newDirectoryClient(testInstance, server.URL)
			target := githubapi.AccountTarget{Name: testAccountNameConstant, Kind: testCase.accountKind}

			descriptors, listError := client.ListRepositories(context.Background(), target)
			require.NoError(testInstance, listError)
			require.Len(testInstance, descriptors, 2)
			require.Equal(testInstance, 1, state.metadataRequests)
		})
	}
}

func TestListRepositoriesCarriesBasicCredentials(testInstance *testing.T) {
	state := &directoryServerState{repositoryCount: 1}
	server := newDirectoryServer(testInstance, state, testOrganizationMetadataPathConstant, testOrganizationRepositoriesPathConstant)
	defer server.Close()

	client := newDirectoryClient(testInstance, server.URL)
	target := githubapi.AccountTarget{
		Name: testAccountNameConstant,
		Kind: githubapi.AccountKindOrganization,
		Credentials: &githubapi.Credentials{
			Username: testBasicAuthUsernameConstant,
			Secret:   testBasicAuthSecretConstant,
		},
	}

	_, listError := client.ListRepositories(context.Background(), target)
	require.NoError(testInstance, listError)

	expectedCredentialPair := testBasicAuthUsernameConstant + ":" + testBasicAuthSecretConstant
	require.NotEmpty(testInstance, state.observedCredentials)
	for _, observedCredential := range state.observedCredentials {
		require.Equal(testInstance, expectedCredentialPair, observedCredential)
	}
}

func TestListRepositoriesErrorClassification(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusCode     int
		expectNotFound bool
	}{
		{name: testAccountNotFoundCaseNameConstant, statusCode: http.StatusNotFound, expectNotFound: true},
		{name: testTransportFailureCaseNameConstant, statusCode: http.StatusInternalServerError, expectNotFound: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				responseWriter.WriteHeader(testCase.statusCode)
			}))
			defer server.Close()

			client := newDirectoryClient(testInstance, server.URL)
			target := githubapi.AccountTarget{Name: testAccountNameConstant, Kind: githubapi.AccountKindOrganization}

			_, listError := client.ListRepositories(context.Background(), target)
			require.Error(testInstance, listError)

			if testCase.expectNotFound {
				require.IsType(testInstance, githubapi.AccountNotFoundError{}, listError)
			} else {
				require.IsType(testInstance, githubapi.TransportError{}, listError)
			}
		})
	}
}

func TestAccountTargetValidation(testInstance *testing.T) {
	testInstance.Run("missing_name", func(testInstance *testing.T) {
		target := githubapi.AccountTarget{Name: "  ", Kind: githubapi.AccountKindOrganization}
		require.ErrorIs(testInstance, target.Validate(), githubapi.ErrAccountNameRequired)
	})

	testInstance.Run("unknown_kind", func(testInstance *testing.T) {
		target := githubapi.AccountTarget{Name: testAccountNameConstant, Kind: githubapi.AccountKind("team")}
		require.IsType(testInstance, githubapi.UnknownAccountKindError{}, target.Validate())
	})
}
