package aecdm

import "context"

// Fixed query shapes for the data-fetch helpers. The assistant can issue
// arbitrary GraphQL through Query; these cover the common browse path.

const hubsQuery = `query GetHubs {
  hubs {
    results {
      id
      name
    }
  }
}`

const projectsQuery = `query GetProjects($hubId: ID!) {
  projects(hubId: $hubId) {
    results {
      id
      name
    }
  }
}`

const elementGroupsQuery = `query GetElementGroups($projectId: ID!) {
  elementGroupsByProject(projectId: $projectId) {
    results {
      id
      name
      alternativeIdentifiers {
        fileVersionUrn
      }
    }
  }
}`

const elementsByCategoryQuery = `query GetElementsByCategory($elementGroupId: ID!, $propertyFilter: String!) {
  elementsByElementGroup(elementGroupId: $elementGroupId, filter: {query: $propertyFilter}) {
    results {
      id
      name
      properties {
        results {
          name
          value
        }
      }
    }
  }
}`

// Hubs lists the hubs visible to the authenticated account.
func (c *Client) Hubs(ctx context.Context, region string) (*Result, error) {
	return c.Query(ctx, hubsQuery, nil, region)
}

// Projects lists the projects of a hub.
func (c *Client) Projects(ctx context.Context, hubID, region string) (*Result, error) {
	return c.Query(ctx, projectsQuery, map[string]any{"hubId": hubID}, region)
}

// ElementGroups lists the element groups (models) of a project, including
// the file version URN needed to render them.
func (c *Client) ElementGroups(ctx context.Context, projectID, region string) (*Result, error) {
	return c.Query(ctx, elementGroupsQuery, map[string]any{"projectId": projectID}, region)
}

// ElementsByCategory lists the elements of an element group matching a
// Revit category, with their properties.
func (c *Client) ElementsByCategory(ctx context.Context, elementGroupID, category, region string) (*Result, error) {
	return c.Query(ctx, elementsByCategoryQuery, map[string]any{
		"elementGroupId": elementGroupID,
		"propertyFilter": "property.name.category==" + category,
	}, region)
}
