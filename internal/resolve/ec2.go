package resolve

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gstoney/mcclient"
)

// EC2 finds running instances whose tag TagKey equals the resolved
// address and returns their IPs, public addresses first.
type EC2 struct {
	Client ec2.DescribeInstancesAPIClient
	TagKey string
	// Port defaults to 25565.
	Port int
}

// NewEC2 builds an EC2 resolver from the default AWS configuration chain.
// An empty region leaves it to the environment.
func NewEC2(ctx context.Context, region, tagKey string, port int) (*EC2, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &EC2{Client: ec2.NewFromConfig(cfg), TagKey: tagKey, Port: port}, nil
}

// Resolve treats addr as the tag value to match.
func (r *EC2) Resolve(ctx context.Context, addr string) ([]string, error) {
	port := r.Port
	if port == 0 {
		port = mcclient.DefaultPort
	}

	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + r.TagKey), Values: []string{addr}},
			{Name: aws.String("instance-state-name"), Values: []string{string(types.InstanceStateNameRunning)}},
		},
	}

	var public, private []string
	pages := ec2.NewDescribeInstancesPaginator(r.Client, input)
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range out.Reservations {
			for _, inst := range res.Instances {
				if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
					public = append(public, net.JoinHostPort(ip, strconv.Itoa(port)))
				}
				if ip := aws.ToString(inst.PrivateIpAddress); ip != "" {
					private = append(private, net.JoinHostPort(ip, strconv.Itoa(port)))
				}
			}
		}
	}

	addrs := append(public, private...)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no running instance tagged %s=%s", ErrNoAddress, r.TagKey, addr)
	}
	return addrs, nil
}
