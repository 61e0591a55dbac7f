package shardconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	"go.uber.org/zap/zaptest"
)

func TestKubernetesSourceLoadsFromConfigMap(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "shard-config", Namespace: "prod"},
		Data:       map[string]string{"shards.yaml": sampleYAML},
	}
	client := fake.NewSimpleClientset(cm)

	src := NewKubernetesSourceFromClient(client, zaptest.NewLogger(t), "prod", "shard-config", "")
	root, err := src.Load(context.Background())
	require.NoError(t, err)

	_, ok := root.ShardSetByName("widgets")
	require.True(t, ok)
}

func TestKubernetesSourceMissingDataKey(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "shard-config", Namespace: "prod"},
		Data:       map[string]string{"other.yaml": sampleYAML},
	}
	client := fake.NewSimpleClientset(cm)

	src := NewKubernetesSourceFromClient(client, zaptest.NewLogger(t), "prod", "shard-config", "")
	_, err := src.Load(context.Background())
	require.Error(t, err)
}
