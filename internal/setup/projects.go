package setup

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	servicecatalogtypes "github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

// sagemakerPortfolioProvider identifies the Service Catalog portfolios that
// back SageMaker Projects templates.
const sagemakerPortfolioProvider = "Amazon SageMaker"

// Projects toggles SageMaker Projects availability for a Studio execution
// role by associating the role with the SageMaker-provided Service Catalog
// portfolios. The account-level portfolio share must already be accepted.
type Projects struct {
	sc     awsapi.ServiceCatalogAPI
	logger *telemetry.Logger
}

// NewProjects creates a SageMaker Projects toggler.
func NewProjects(sc awsapi.ServiceCatalogAPI, logger *telemetry.Logger) *Projects {
	return &Projects{sc: sc, logger: logger}
}

func (p *Projects) portfolioIDs(ctx context.Context) ([]string, error) {
	out, err := p.sc.ListAcceptedPortfolioShares(ctx, &servicecatalog.ListAcceptedPortfolioSharesInput{})
	if err != nil {
		return nil, fmt.Errorf("list accepted portfolio shares: %w", err)
	}
	seen := map[string]bool{}
	var ids []string
	for _, portfolio := range out.PortfolioDetails {
		if aws.ToString(portfolio.ProviderName) != sagemakerPortfolioProvider {
			continue
		}
		id := aws.ToString(portfolio.Id)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// EnableForRole associates the SageMaker portfolios with the given execution
// role.
func (p *Projects) EnableForRole(ctx context.Context, roleARN string) error {
	ids, err := p.portfolioIDs(ctx)
	if err != nil {
		return err
	}
	p.logger.WithContext(ctx).Info().
		Int("portfolios", len(ids)).
		Str("role_arn", roleARN).
		Msg("enabling SageMaker Projects portfolios")
	for _, id := range ids {
		_, err := p.sc.AssociatePrincipalWithPortfolio(ctx, &servicecatalog.AssociatePrincipalWithPortfolioInput{
			PortfolioId:   aws.String(id),
			PrincipalARN:  aws.String(roleARN),
			PrincipalType: servicecatalogtypes.PrincipalTypeIam,
		})
		if err != nil {
			return fmt.Errorf("associate role with portfolio %s: %w", id, err)
		}
	}
	return nil
}

// DisableForRole removes the role's association with the SageMaker
// portfolios.
func (p *Projects) DisableForRole(ctx context.Context, roleARN string) error {
	ids, err := p.portfolioIDs(ctx)
	if err != nil {
		return err
	}
	p.logger.WithContext(ctx).Info().
		Int("portfolios", len(ids)).
		Str("role_arn", roleARN).
		Msg("disabling SageMaker Projects portfolios")
	for _, id := range ids {
		_, err := p.sc.DisassociatePrincipalFromPortfolio(ctx, &servicecatalog.DisassociatePrincipalFromPortfolioInput{
			PortfolioId:  aws.String(id),
			PrincipalARN: aws.String(roleARN),
		})
		if err != nil {
			return fmt.Errorf("disassociate role from portfolio %s: %w", id, err)
		}
	}
	return nil
}
