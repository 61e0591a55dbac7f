package shardconfig

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubernetesSource loads the configuration document from a single key of a
// ConfigMap, for deployments that mount shard configuration as a ConfigMap
// instead of a file on disk or an etcd value.
type KubernetesSource struct {
	client    kubernetes.Interface
	logger    *zap.Logger
	namespace string
	name      string
	dataKey   string
}

// NewKubernetesSource builds a client using in-cluster config, falling back
// to the local kubeconfig for development outside a cluster.
func NewKubernetesSource(logger *zap.Logger, namespace, name, dataKey string) (*KubernetesSource, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		config, err = clientcmd.BuildConfigFromFlags("", clientcmd.RecommendedHomeFile)
		if err != nil {
			return nil, fmt.Errorf("shardconfig: kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("shardconfig: kubernetes client: %w", err)
	}

	return NewKubernetesSourceFromClient(clientset, logger, namespace, name, dataKey), nil
}

// NewKubernetesSourceFromClient builds a source around an existing client,
// so tests can supply a fake clientset.
func NewKubernetesSourceFromClient(client kubernetes.Interface, logger *zap.Logger, namespace, name, dataKey string) *KubernetesSource {
	if dataKey == "" {
		dataKey = "shards.yaml"
	}
	return &KubernetesSource{
		client:    client,
		logger:    logger,
		namespace: namespace,
		name:      name,
		dataKey:   dataKey,
	}
}

// Load fetches the ConfigMap and parses its dataKey entry.
func (s *KubernetesSource) Load(ctx context.Context) (*Root, error) {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("shardconfig: get configmap %s/%s: %w", s.namespace, s.name, err)
	}
	doc, ok := cm.Data[s.dataKey]
	if !ok {
		return nil, fmt.Errorf("shardconfig: configmap %s/%s has no key %q", s.namespace, s.name, s.dataKey)
	}
	return Load([]byte(doc))
}
