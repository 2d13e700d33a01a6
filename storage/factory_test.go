package storage

import (
	"testing"

	"github.com/anoixa/photo-bed/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Local(t *testing.T) {
	p, err := NewProvider(&config.Config{MediaStoreType: "LOCAL", MediaLocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, TypeLocal, p.Name())

	// 未配置类型时默认本地
	p, err = NewProvider(&config.Config{MediaLocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, p)
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(&config.Config{MediaStoreType: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage type")

	cases := []*config.Config{
		{MediaStoreType: TypeS3},
		{MediaStoreType: TypeS3, MediaS3Bucket: "b"},
		{MediaStoreType: TypeOSS},
		{MediaStoreType: TypeCOS},
		{MediaStoreType: TypeCOS, MediaCOSBucketURL: "https://b.cos.ap-guangzhou.myqcloud.com"},
		{MediaStoreType: TypeMinio},
		{MediaStoreType: TypeWebDAV},
	}
	for _, cfg := range cases {
		_, err := NewProvider(cfg)
		assert.Error(t, err, "type %s", cfg.MediaStoreType)
	}
}

func TestNewProvider_RemoteClientsConstruct(t *testing.T) {
	// 构造 S3/COS 客户端不会发起网络请求
	p, err := NewProvider(&config.Config{
		MediaStoreType:         TypeS3,
		MediaS3Bucket:          "photos",
		MediaS3Region:          "us-east-1",
		MediaS3Endpoint:        "localhost:9000",
		MediaS3AccessKeyID:     "ak",
		MediaS3SecretAccessKey: "sk",
		MediaS3ForcePathStyle:  true,
		MediaS3Prefix:          "/bed/",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeS3, p.Name())
	assert.Equal(t, "bed/qr/photo_1.png", p.(*S3Storage).key("qr/photo_1.png"))

	p, err = NewProvider(&config.Config{
		MediaStoreType:    TypeCOS,
		MediaCOSBucketURL: "https://b-123.cos.ap-guangzhou.myqcloud.com",
		MediaCOSSecretID:  "id",
		MediaCOSSecretKey: "key",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeCOS, p.Name())
}

func TestIsS3NotFound(t *testing.T) {
	assert.False(t, isS3NotFound(nil))
	assert.True(t, isS3NotFound(assertErr("operation error S3: HeadObject, https response error StatusCode: 404, status code: 404")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
