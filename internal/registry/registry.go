// Package registry promotes sandbox-trained models into the project account:
// artifacts are copied to the project bucket and a fresh SageMaker model is
// created against the project execution role.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/pkg/naming"
	"github.com/modelfold/smops/pkg/s3uri"
	"github.com/modelfold/smops/telemetry"
)

// submitDirEnv is the container environment variable holding the source
// bundle location for SageMaker framework containers.
const submitDirEnv = "SAGEMAKER_SUBMIT_DIRECTORY"

// Request is the model registration payload submitted by a data scientist
// from the sandbox account.
type Request struct {
	TrainingJob TrainingJob `json:"TrainingJob"`
	Model       ModelSpec   `json:"Model"`
}

// TrainingJob carries the subset of a DescribeTrainingJob result the
// registration needs.
type TrainingJob struct {
	TrainingJobName  string            `json:"TrainingJobName"`
	ExperimentConfig ExperimentConfig  `json:"ExperimentConfig"`
	ModelArtifacts   ModelArtifacts    `json:"ModelArtifacts"`
	HyperParameters  map[string]string `json:"HyperParameters"`
}

// ExperimentConfig links a training job to its experiment trial.
type ExperimentConfig struct {
	TrialName string `json:"TrialName"`
}

// ModelArtifacts locates the training job's output model archive.
type ModelArtifacts struct {
	S3ModelArtifacts string `json:"S3ModelArtifacts"`
}

// ModelSpec carries the sandbox model's container definition. The container
// shape matches the SageMaker CreateModel API.
type ModelSpec struct {
	PrimaryContainer sagemakertypes.ContainerDefinition `json:"PrimaryContainer"`
}

// Registration is the outcome of a successful model promotion.
type Registration struct {
	ModelArn  string `json:"ModelArn"`
	ModelName string `json:"ModelName"`
}

// Registrar copies model artifacts into the project bucket and registers the
// promoted model.
type Registrar struct {
	sm     awsapi.ModelAPI
	s3     awsapi.S3API
	logger *telemetry.Logger

	// Bucket is the project artifact bucket receiving promoted models.
	Bucket string
	// ModelRoleARN is the project execution role for registered models.
	ModelRoleARN string
	// ProjectID tags every registered model.
	ProjectID string
	// BaseName prefixes generated model names.
	BaseName string

	now func() time.Time
}

// NewRegistrar creates a model registrar for the given project bucket.
func NewRegistrar(sm awsapi.ModelAPI, s3c awsapi.S3API, logger *telemetry.Logger, bucket, modelRoleARN, projectID string) *Registrar {
	return &Registrar{
		sm:           sm,
		s3:           s3c,
		logger:       logger,
		Bucket:       bucket,
		ModelRoleARN: modelRoleARN,
		ProjectID:    projectID,
		BaseName:     "pipeline",
		now:          time.Now,
	}
}

// PromoteContainer rewrites a container definition for the project
// environment: the model data URL is replaced, the submit directory is
// swapped for its promoted copy, and any other S3 URI left in the
// environment is rejected as non-ported.
func PromoteContainer(def sagemakertypes.ContainerDefinition, dataURI string, submitURI *string) (sagemakertypes.ContainerDefinition, error) {
	result := def
	result.ModelDataUrl = aws.String(dataURI)

	if def.Environment != nil {
		env := make(map[string]string, len(def.Environment))
		for k, v := range def.Environment {
			env[k] = v
		}
		if submitURI != nil {
			env[submitDirEnv] = *submitURI
		} else if env[submitDirEnv] != "" {
			return sagemakertypes.ContainerDefinition{}, fmt.Errorf(
				"model has a %s but no replacement was provided", submitDirEnv)
		}
		for k, v := range env {
			if k != submitDirEnv && s3uri.Is(v) {
				return sagemakertypes.ContainerDefinition{}, fmt.Errorf(
					"container definition contains non-ported S3 URI environment variable %q", k)
			}
		}
		result.Environment = env
	}
	return result, nil
}

// Register promotes the model described by the raw registration event. The
// raw payload is archived alongside the copied artifacts for provenance.
func (r *Registrar) Register(ctx context.Context, raw json.RawMessage) (*Registration, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode registration request: %w", err)
	}

	trialName := req.TrainingJob.ExperimentConfig.TrialName
	trial, err := r.sm.DescribeTrial(ctx, &sagemaker.DescribeTrialInput{TrialName: aws.String(trialName)})
	if err != nil {
		return nil, fmt.Errorf("describe trial %s: %w", trialName, err)
	}
	experimentName := aws.ToString(trial.ExperimentName)

	modelName := naming.WithTimestamp(r.BaseName, "-", r.now())
	folder := fmt.Sprintf("models/%s/%s", experimentName, trialName)

	log := r.logger.WithContext(ctx)
	log.Info().
		Str("model_name", modelName).
		Str("folder", folder).
		Str("training_job", req.TrainingJob.TrainingJobName).
		Msg("registering model")

	_, err = r.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.Bucket),
		Key:         aws.String(folder + "/request.json"),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("archive registration request: %w", err)
	}

	// The training job's output archive can differ from the registered model
	// object (an extra code/ folder). Both are stored; the model object is
	// what gets deployed.
	if err := r.copyArtifact(ctx, req.TrainingJob.ModelArtifacts.S3ModelArtifacts, folder+"/model-train.tar.gz"); err != nil {
		return nil, err
	}
	if err := r.copyArtifact(ctx, aws.ToString(req.Model.PrimaryContainer.ModelDataUrl), folder+"/model.tar.gz"); err != nil {
		return nil, err
	}
	modelTarURI := s3uri.Format(r.Bucket, folder+"/model.tar.gz")

	// Hyperparameter values are JSON-encoded to support non-string types.
	if encoded, ok := req.TrainingJob.HyperParameters["sagemaker_submit_directory"]; ok {
		var trainSourceURI string
		if err := json.Unmarshal([]byte(encoded), &trainSourceURI); err != nil {
			return nil, fmt.Errorf("decode sagemaker_submit_directory hyperparameter: %w", err)
		}
		if err := r.copyArtifact(ctx, trainSourceURI, folder+"/train-sourcedir.tar.gz"); err != nil {
			return nil, err
		}
	}

	var inferenceTarURI *string
	if src, ok := req.Model.PrimaryContainer.Environment[submitDirEnv]; ok {
		if err := r.copyArtifact(ctx, src, folder+"/inference.tar.gz"); err != nil {
			return nil, err
		}
		inferenceTarURI = aws.String(s3uri.Format(r.Bucket, folder+"/inference.tar.gz"))
	}

	container, err := PromoteContainer(req.Model.PrimaryContainer, modelTarURI, inferenceTarURI)
	if err != nil {
		return nil, err
	}

	out, err := r.sm.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:              aws.String(modelName),
		ExecutionRoleArn:       aws.String(r.ModelRoleARN),
		EnableNetworkIsolation: aws.Bool(false),
		PrimaryContainer:       &container,
		Tags: []sagemakertypes.Tag{
			{Key: aws.String("Project"), Value: aws.String(r.ProjectID)},
			{Key: aws.String("Pipeline-Status"), Value: aws.String("New")},
			{Key: aws.String("ExperimentName"), Value: aws.String(experimentName)},
			{Key: aws.String("TrialName"), Value: aws.String(trialName)},
			{Key: aws.String("TrainingJobName"), Value: aws.String(req.TrainingJob.TrainingJobName)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create model %s: %w", modelName, err)
	}

	return &Registration{
		ModelArn:  aws.ToString(out.ModelArn),
		ModelName: modelName,
	}, nil
}

// copyArtifact copies one S3 object from its sandbox location into the
// project bucket under dstKey.
func (r *Registrar) copyArtifact(ctx context.Context, srcURI, dstKey string) error {
	src, err := s3uri.Parse(srcURI)
	if err != nil {
		return fmt.Errorf("artifact for %s: %w", dstKey, err)
	}
	_, err = r.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(r.Bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(src.Bucket + "/" + src.Key),
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcURI, dstKey, err)
	}
	return nil
}
