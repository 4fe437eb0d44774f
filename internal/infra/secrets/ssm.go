package secrets

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"
)

// Provider fetches function secrets from SSM Parameter Store, assuming the
// privileged exec role first. Lookups never fail upward: any fault yields an
// empty map so the caller falls back to other token sources.
type Provider struct {
	log         *logrus.Logger
	path        string
	roleArn     string
	sessionName string

	mu  sync.Mutex
	ssm *ssm.Client
}

// NewProvider reads its wiring from the function environment. A missing
// secrets path disables lookups entirely.
func NewProvider(log *logrus.Logger) *Provider {
	sessionName := os.Getenv("SamsaraFunctionName")
	if sessionName == "" {
		sessionName = "function"
	}
	return &Provider{
		log:         log,
		path:        os.Getenv("SamsaraFunctionSecretsPath"),
		roleArn:     os.Getenv("SamsaraFunctionExecRoleArn"),
		sessionName: sessionName,
	}
}

// Secrets returns the secret name/value mapping stored at the configured
// parameter path. Never returns an error: faults are logged and produce an
// empty map.
func (p *Provider) Secrets(ctx context.Context) map[string]string {
	if p.path == "" {
		return map[string]string{}
	}

	client, err := p.client(ctx)
	if err != nil {
		p.log.Warnf("secrets: building SSM client: %v", err)
		return map[string]string{}
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		p.log.Warnf("secrets: fetching parameter %s: %v", p.path, err)
		return map[string]string{}
	}

	values := map[string]string{}
	if err := json.Unmarshal([]byte(aws.ToString(out.Parameter.Value)), &values); err != nil {
		p.log.Warnf("secrets: parameter %s is not a JSON object: %v", p.path, err)
		return map[string]string{}
	}
	return values
}

// Refresh drops the cached client so the next lookup re-assumes the exec
// role.
func (p *Provider) Refresh() {
	p.mu.Lock()
	p.ssm = nil
	p.mu.Unlock()
}

func (p *Provider) client(ctx context.Context) (*ssm.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ssm != nil {
		return p.ssm, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	if p.roleArn != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), p.roleArn, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = p.sessionName
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	p.ssm = ssm.NewFromConfig(cfg)
	return p.ssm, nil
}
