package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	servicecatalogtypes "github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/smops/telemetry"
)

type mockServiceCatalog struct {
	portfolios    []servicecatalogtypes.PortfolioDetail
	associated    []string
	disassociated []string
}

func (m *mockServiceCatalog) ListAcceptedPortfolioShares(_ context.Context, _ *servicecatalog.ListAcceptedPortfolioSharesInput, _ ...func(*servicecatalog.Options)) (*servicecatalog.ListAcceptedPortfolioSharesOutput, error) {
	return &servicecatalog.ListAcceptedPortfolioSharesOutput{PortfolioDetails: m.portfolios}, nil
}

func (m *mockServiceCatalog) AssociatePrincipalWithPortfolio(_ context.Context, params *servicecatalog.AssociatePrincipalWithPortfolioInput, _ ...func(*servicecatalog.Options)) (*servicecatalog.AssociatePrincipalWithPortfolioOutput, error) {
	m.associated = append(m.associated, aws.ToString(params.PortfolioId))
	return &servicecatalog.AssociatePrincipalWithPortfolioOutput{}, nil
}

func (m *mockServiceCatalog) DisassociatePrincipalFromPortfolio(_ context.Context, params *servicecatalog.DisassociatePrincipalFromPortfolioInput, _ ...func(*servicecatalog.Options)) (*servicecatalog.DisassociatePrincipalFromPortfolioOutput, error) {
	m.disassociated = append(m.disassociated, aws.ToString(params.PortfolioId))
	return &servicecatalog.DisassociatePrincipalFromPortfolioOutput{}, nil
}

func sagemakerPortfolios() []servicecatalogtypes.PortfolioDetail {
	return []servicecatalogtypes.PortfolioDetail{
		{Id: aws.String("port-sm1"), ProviderName: aws.String("Amazon SageMaker")},
		{Id: aws.String("port-other"), ProviderName: aws.String("Acme Corp")},
		{Id: aws.String("port-sm2"), ProviderName: aws.String("Amazon SageMaker")},
	}
}

func TestProjectsEnableForRole(t *testing.T) {
	sc := &mockServiceCatalog{portfolios: sagemakerPortfolios()}
	projects := NewProjects(sc, telemetry.NewLogger("test"))

	require.NoError(t, projects.EnableForRole(context.Background(), "arn:aws:iam::111122223333:role/StudioExec"))
	assert.ElementsMatch(t, []string{"port-sm1", "port-sm2"}, sc.associated)
}

func TestProjectsDisableForRole(t *testing.T) {
	sc := &mockServiceCatalog{portfolios: sagemakerPortfolios()}
	projects := NewProjects(sc, telemetry.NewLogger("test"))

	require.NoError(t, projects.DisableForRole(context.Background(), "arn:aws:iam::111122223333:role/StudioExec"))
	assert.ElementsMatch(t, []string{"port-sm1", "port-sm2"}, sc.disassociated)
}

func testContent(t *testing.T) (*Content, *[]string) {
	t.Helper()
	var chowned []string
	c := NewContent(t.TempDir(), telemetry.NewLogger("test"))
	c.chown = func(path string, uid int) error {
		chowned = append(chowned, path)
		return nil
	}
	c.clone = func(_ context.Context, _ string, dir string) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644)
	}
	return c, &chowned
}

func TestEnsureHomeDir(t *testing.T) {
	c, chowned := testContent(t)

	home, err := c.EnsureHomeDir(context.Background(), "200005")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root, "200005"), home)
	assert.DirExists(t, home)
	assert.Contains(t, *chowned, home)

	// Idempotent on an existing folder.
	_, err = c.EnsureHomeDir(context.Background(), "200005")
	require.NoError(t, err)

	_, err = c.EnsureHomeDir(context.Background(), "not-a-uid")
	require.Error(t, err)
}

func TestCloneRepository(t *testing.T) {
	c, chowned := testContent(t)

	err := c.CloneRepository(context.Background(), "200005", "https://github.com/example/starter-notebooks.git")
	require.NoError(t, err)

	dir := filepath.Join(c.Root, "200005", "starter-notebooks")
	assert.FileExists(t, filepath.Join(dir, "README.md"))
	assert.Contains(t, *chowned, dir)
	assert.Contains(t, *chowned, filepath.Join(dir, "README.md"))
}

func TestRepoFolderName(t *testing.T) {
	assert.Equal(t, "starter", repoFolderName("https://github.com/example/starter.git"))
	assert.Equal(t, "starter", repoFolderName("https://github.com/example/starter"))
	assert.Equal(t, "local", repoFolderName("local"))
}

type mockProfileDescriber struct {
	DescribeUserProfileFunc func(ctx context.Context, params *sagemaker.DescribeUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error)
}

func (m *mockProfileDescriber) ListDomains(context.Context, *sagemaker.ListDomainsInput, ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileDescriber) DescribeDomain(context.Context, *sagemaker.DescribeDomainInput, ...func(*sagemaker.Options)) (*sagemaker.DescribeDomainOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileDescriber) DescribeUserProfile(ctx context.Context, params *sagemaker.DescribeUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error) {
	return m.DescribeUserProfileFunc(ctx, params, optFns...)
}

func (m *mockProfileDescriber) CreateUserProfile(context.Context, *sagemaker.CreateUserProfileInput, ...func(*sagemaker.Options)) (*sagemaker.CreateUserProfileOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileDescriber) UpdateUserProfile(context.Context, *sagemaker.UpdateUserProfileInput, ...func(*sagemaker.Options)) (*sagemaker.UpdateUserProfileOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileDescriber) DeleteUserProfile(context.Context, *sagemaker.DeleteUserProfileInput, ...func(*sagemaker.Options)) (*sagemaker.DeleteUserProfileOutput, error) {
	return nil, errors.New("not implemented")
}

func profileWithRole(roleARN string) *mockProfileDescriber {
	return &mockProfileDescriber{
		DescribeUserProfileFunc: func(_ context.Context, _ *sagemaker.DescribeUserProfileInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error) {
			return &sagemaker.DescribeUserProfileOutput{
				UserSettings: &sagemakertypes.UserSettings{ExecutionRole: aws.String(roleARN)},
			}, nil
		},
	}
}

func TestManagerCreate(t *testing.T) {
	t.Run("clones content and enables projects", func(t *testing.T) {
		content, _ := testContent(t)
		sc := &mockServiceCatalog{portfolios: sagemakerPortfolios()}
		logger := telemetry.NewLogger("test")
		m := NewManager(profileWithRole("arn:aws:iam::111122223333:role/AliceExec"),
			content, NewProjects(sc, logger), logger)

		err := m.Create(context.Background(), Properties{
			DomainID:             "d-one",
			UserProfileName:      "alice",
			GitRepository:        "https://github.com/example/starter.git",
			HomeEfsFileSystemUID: "200005",
			EnableProjects:       true,
		})
		require.NoError(t, err)
		assert.DirExists(t, filepath.Join(content.Root, "200005", "starter"))
		assert.ElementsMatch(t, []string{"port-sm1", "port-sm2"}, sc.associated)
	})

	t.Run("git repository requires an EFS UID", func(t *testing.T) {
		content, _ := testContent(t)
		logger := telemetry.NewLogger("test")
		m := NewManager(profileWithRole("arn:role"), content, NewProjects(&mockServiceCatalog{}, logger), logger)

		err := m.Create(context.Background(), Properties{
			UserProfileName: "alice",
			GitRepository:   "https://github.com/example/starter.git",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HomeEfsFileSystemUid")
	})

	t.Run("content errors are swallowed", func(t *testing.T) {
		content, _ := testContent(t)
		content.clone = func(context.Context, string, string) error {
			return errors.New("remote unreachable")
		}
		logger := telemetry.NewLogger("test")
		m := NewManager(profileWithRole("arn:role"), content, NewProjects(&mockServiceCatalog{}, logger), logger)

		err := m.Create(context.Background(), Properties{
			UserProfileName:      "alice",
			GitRepository:        "https://github.com/example/starter.git",
			HomeEfsFileSystemUID: "200005",
		})
		require.NoError(t, err)
	})
}

func TestManagerDelete(t *testing.T) {
	content, _ := testContent(t)
	sc := &mockServiceCatalog{portfolios: sagemakerPortfolios()}
	logger := telemetry.NewLogger("test")
	m := NewManager(profileWithRole("arn:aws:iam::111122223333:role/AliceExec"),
		content, NewProjects(sc, logger), logger)

	require.NoError(t, m.Delete(context.Background(), Properties{
		DomainID:        "d-one",
		UserProfileName: "alice",
		EnableProjects:  true,
	}))
	assert.ElementsMatch(t, []string{"port-sm1", "port-sm2"}, sc.disassociated)

	// Without projects enabled there is nothing to undo.
	sc.disassociated = nil
	require.NoError(t, m.Delete(context.Background(), Properties{UserProfileName: "bob"}))
	assert.Empty(t, sc.disassociated)
}
