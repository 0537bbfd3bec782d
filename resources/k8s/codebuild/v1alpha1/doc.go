// Package v1alpha1 contains ACK CodeBuild resource types for Kubernetes-native
// management of CodeBuild projects.
//
// These types mirror the Project custom resource served by the AWS Controllers
// for Kubernetes (ACK) CodeBuild controller. The internal/ack package converts
// synthesized CloudFormation projects into these manifests.
//
// Example usage:
//
//	import (
//		cbv1alpha1 "github.com/lex00/wetwire-codebuild-go/resources/k8s/codebuild/v1alpha1"
//		metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
//	)
//
//	var Build = cbv1alpha1.Project{
//		TypeMeta:   cbv1alpha1.ProjectTypeMeta(),
//		ObjectMeta: metav1.ObjectMeta{Name: "api-build", Namespace: "ci"},
//		Spec: cbv1alpha1.ProjectSpec{
//			Name: "api-build",
//		},
//	}
package v1alpha1
